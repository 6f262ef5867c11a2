package dialog

import (
	"strings"

	"github.com/MrWong99/flightdesk/internal/booking"
)

const (
	msgWelcome       = "Hi! I can help you book a flight."
	msgStartOver     = "No problem, I've cleared everything. Let's start over. How can I help you today?"
	msgNotUnderstood = "Sorry, I didn't quite catch that."
	msgOffTopic      = "I'm best at booking flights; for anything else our support team at the airline can help."
	msgWhatToChange  = "Sure, what would you like to change? You can update your name, cities, dates or trip type."
	msgHandoff       = "I'm having trouble getting this right, so I'm transferring you to one of our agents who can finish your booking."
	msgInternalError = "Sorry, something went wrong on my side. Could you say that again?"
)

var topicAnswers = map[string]string{
	"baggage": "Each ticket includes one carry-on bag and a personal item. Checked bags can be added after booking.",
	"refund":  "Refundable fares can be cancelled for a full refund up to 24 hours before departure; other fares receive travel credit.",
	"changes": "You can change your flight after booking; a fare difference may apply.",
	"pets":    "Small pets in an approved carrier can travel in the cabin for an additional fee.",
	"seats":   "You'll be able to pick your seat once the booking is confirmed.",
	"checkin": "Online check-in opens 24 hours before departure.",
	"payment": "We accept all major credit and debit cards.",
	"meals":   "Snacks and drinks are available on board, and meals are served on longer flights.",
	"wifi":    "Most of our flights offer Wi-Fi for purchase on board.",
}

func topicAnswer(topic string) string {
	if a, ok := topicAnswers[topic]; ok {
		return a
	}
	return msgOffTopic
}

// redirect is the reply to input the content filter rejected.
func redirect(category string) string {
	switch category {
	case "personal_info":
		return "For your security, please don't share sensitive details like ID, card numbers or contact information here."
	case "profanity", "hate_speech":
		return "I'd like to keep our conversation respectful. Let's get back to your booking."
	case "malicious_input":
		return "I can only help with booking flights."
	}
	return msgNotUnderstood
}

var slotLabels = map[string]string{
	booking.DepartureCity.Name():  "departure city",
	booking.ArrivalCity.Name():    "destination",
	booking.DepartureDate.Name():  "departure date",
	booking.ReturnDate.Name():     "return date",
	booking.TripKind.Name():       "trip type",
	booking.PassengerCount.Name(): "number of passengers",
	booking.Cabin.Name():          "cabin class",
	booking.Email.Name():          "email address",
	booking.Phone.Name():          "phone number",
}

func slotLabel(slot string) string {
	if l, ok := slotLabels[slot]; ok {
		return l
	}
	return strings.ReplaceAll(slot, "_", " ")
}

func tripLabel(tt booking.TripType) string {
	if tt == booking.OneWay {
		return "one-way trip"
	}
	return "round trip"
}
