package catalog

// defaultCities is the built-in table of common North American and
// international destinations.
var defaultCities = []City{
	{Name: "New York", Code: "JFK", Country: "US", Aliases: []string{"nyc", "new york city", "manhattan", "the big apple"}},
	{Name: "Newark", Code: "EWR", Country: "US"},
	{Name: "Los Angeles", Code: "LAX", Country: "US", Aliases: []string{"la", "l.a.", "los angeles california"}},
	{Name: "Chicago", Code: "ORD", Country: "US", Aliases: []string{"chi town", "chitown", "the windy city"}},
	{Name: "Boston", Code: "BOS", Country: "US", Aliases: []string{"beantown"}},
	{Name: "Miami", Code: "MIA", Country: "US"},
	{Name: "San Francisco", Code: "SFO", Country: "US", Aliases: []string{"sf", "san fran", "frisco"}},
	{Name: "Seattle", Code: "SEA", Country: "US"},
	{Name: "Denver", Code: "DEN", Country: "US"},
	{Name: "Atlanta", Code: "ATL", Country: "US", Aliases: []string{"hotlanta"}},
	{Name: "Dallas", Code: "DFW", Country: "US", Aliases: []string{"dallas fort worth", "fort worth"}},
	{Name: "Houston", Code: "IAH", Country: "US"},
	{Name: "Austin", Code: "AUS", Country: "US"},
	{Name: "Phoenix", Code: "PHX", Country: "US"},
	{Name: "Las Vegas", Code: "LAS", Country: "US", Aliases: []string{"vegas"}},
	{Name: "Orlando", Code: "MCO", Country: "US"},
	{Name: "Washington", Code: "DCA", Country: "US", Aliases: []string{"washington dc", "dc", "d.c."}},
	{Name: "Philadelphia", Code: "PHL", Country: "US", Aliases: []string{"philly"}},
	{Name: "San Diego", Code: "SAN", Country: "US"},
	{Name: "Minneapolis", Code: "MSP", Country: "US", Aliases: []string{"twin cities"}},
	{Name: "Detroit", Code: "DTW", Country: "US"},
	{Name: "Charlotte", Code: "CLT", Country: "US"},
	{Name: "Portland", Code: "PDX", Country: "US"},
	{Name: "Salt Lake City", Code: "SLC", Country: "US", Aliases: []string{"salt lake"}},
	{Name: "Nashville", Code: "BNA", Country: "US"},
	{Name: "New Orleans", Code: "MSY", Country: "US", Aliases: []string{"nola"}},
	{Name: "St. Louis", Code: "STL", Country: "US", Aliases: []string{"saint louis"}},
	{Name: "Baltimore", Code: "BWI", Country: "US"},
	{Name: "Tampa", Code: "TPA", Country: "US"},
	{Name: "Honolulu", Code: "HNL", Country: "US"},
	{Name: "Anchorage", Code: "ANC", Country: "US"},
	{Name: "Pittsburgh", Code: "PIT", Country: "US"},
	{Name: "Kansas City", Code: "MCI", Country: "US"},
	{Name: "Toronto", Code: "YYZ", Country: "CA"},
	{Name: "Vancouver", Code: "YVR", Country: "CA"},
	{Name: "Montreal", Code: "YUL", Country: "CA"},
	{Name: "Mexico City", Code: "MEX", Country: "MX"},
	{Name: "Cancun", Code: "CUN", Country: "MX"},
	{Name: "London", Code: "LHR", Country: "GB"},
	{Name: "Paris", Code: "CDG", Country: "FR"},
	{Name: "Frankfurt", Code: "FRA", Country: "DE"},
	{Name: "Amsterdam", Code: "AMS", Country: "NL"},
	{Name: "Madrid", Code: "MAD", Country: "ES"},
	{Name: "Rome", Code: "FCO", Country: "IT"},
	{Name: "Dublin", Code: "DUB", Country: "IE"},
	{Name: "Tokyo", Code: "HND", Country: "JP"},
	{Name: "Sydney", Code: "SYD", Country: "AU"},
}

// Default returns a Catalog built from the built-in city table.
func Default() *Catalog {
	c, err := New(defaultCities)
	if err != nil {
		panic("catalog: invalid built-in table: " + err.Error())
	}
	return c
}
