package booking

// View is the flattened, JSON-friendly projection of a Store used in LLM
// prompts and API responses.
type View struct {
	FirstName          string        `json:"first_name,omitempty"`
	LastName           string        `json:"last_name,omitempty"`
	Email              string        `json:"email,omitempty"`
	Phone              string        `json:"phone,omitempty"`
	FrequentFlyer      string        `json:"frequent_flyer,omitempty"`
	DepartureCity      string        `json:"departure_city,omitempty"`
	ArrivalCity        string        `json:"arrival_city,omitempty"`
	DepartureDate      string        `json:"departure_date,omitempty"`
	ReturnDate         string        `json:"return_date,omitempty"`
	TripType           TripType      `json:"trip_type,omitempty"`
	PassengerCount     int           `json:"passenger_count,omitempty"`
	CabinClass         CabinClass    `json:"cabin_class,omitempty"`
	OutboundFlight     *FlightOption `json:"outbound_flight,omitempty"`
	ReturnFlight       *FlightOption `json:"return_flight,omitempty"`
	ConfirmationNumber string        `json:"confirmation_number,omitempty"`

	Missing    []string `json:"missing,omitempty"`
	Completion float64  `json:"completion_percentage"`
}

// PublicView flattens s into a View.
func (s *Store) PublicView() View {
	v := View{
		Missing:    s.MissingRequired(),
		Completion: s.CompletionPercentage(),
	}
	c, t := s.Customer, s.Trip
	if c.FirstName != nil {
		v.FirstName = c.FirstName.Value
	}
	if c.LastName != nil {
		v.LastName = c.LastName.Value
	}
	if c.Email != nil {
		v.Email = c.Email.Value
	}
	if c.Phone != nil {
		v.Phone = c.Phone.Value
	}
	if c.FrequentFlyer != nil {
		v.FrequentFlyer = c.FrequentFlyer.Value
	}
	if t.DepartureCity != nil {
		v.DepartureCity = t.DepartureCity.Value
	}
	if t.ArrivalCity != nil {
		v.ArrivalCity = t.ArrivalCity.Value
	}
	if t.DepartureDate != nil {
		v.DepartureDate = t.DepartureDate.Value.Format(DateLayout)
	}
	if t.ReturnDate != nil {
		v.ReturnDate = t.ReturnDate.Value.Format(DateLayout)
	}
	if t.TripType != nil {
		v.TripType = t.TripType.Value
	}
	if t.PassengerCount != nil {
		v.PassengerCount = t.PassengerCount.Value
	}
	if t.CabinClass != nil {
		v.CabinClass = t.CabinClass.Value
	}
	if t.OutboundFlight != nil {
		f := t.OutboundFlight.Value
		v.OutboundFlight = &f
	}
	if t.ReturnFlight != nil {
		f := t.ReturnFlight.Value
		v.ReturnFlight = &f
	}
	if t.ConfirmationNumber != nil {
		v.ConfirmationNumber = t.ConfirmationNumber.Value
	}
	return v
}
