package booking

import "time"

// FlightOption is one ranked result supplied by the flight-search collaborator.
type FlightOption struct {
	FlightNumber   string        `json:"flight_number"`
	Airline        string        `json:"airline"`
	DepartureTime  time.Time     `json:"departure_time"`
	ArrivalTime    time.Time     `json:"arrival_time"`
	Duration       time.Duration `json:"duration"`
	Stops          int           `json:"stop_count"`
	Price          float64       `json:"price"`
	SeatsAvailable int           `json:"seats_available"`
}

// SearchRequest is emitted when the engine needs flight options.
type SearchRequest struct {
	DepartureCity  string     `json:"departure_city"`
	ArrivalCity    string     `json:"arrival_city"`
	DepartureDate  string     `json:"departure_date"`
	ReturnDate     string     `json:"return_date,omitempty"`
	TripType       TripType   `json:"trip_type"`
	PassengerCount int        `json:"passenger_count"`
	CabinClass     CabinClass `json:"cabin_class"`
	// FlexibleDates widens the search window by FlexibleDays on either side.
	FlexibleDates  bool   `json:"flexible_dates,omitempty"`
	FlexibleDays   int    `json:"flexible_days,omitempty"`
	TimePreference string `json:"time_preference,omitempty"`
}
