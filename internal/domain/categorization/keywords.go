package categorization

import "github.com/FACorreiaa/expense-tracker/internal/domain/expense"

// Keyword maps a whole word or phrase in a description to a category.
type Keyword struct {
	Pattern  string
	Category expense.Category
}

func keywords(c expense.Category, patterns ...string) []Keyword {
	out := make([]Keyword, len(patterns))
	for i, p := range patterns {
		out[i] = Keyword{Pattern: p, Category: c}
	}
	return out
}

// DefaultKeywords is the built-in vocabulary.
func DefaultKeywords() []Keyword {
	var all []Keyword
	all = append(all, keywords(expense.CategoryFood,
		"grocery", "groceries", "supermarket", "market", "restaurant", "cafe", "coffee",
		"lunch", "dinner", "breakfast", "brunch", "pizza", "burger", "sushi", "bakery",
		"takeaway", "delivery", "starbucks", "mcdonalds", "food", "snacks",
	)...)
	all = append(all, keywords(expense.CategoryTravel,
		"flight", "airline", "airport", "hotel", "hostel", "airbnb", "taxi", "uber", "lyft",
		"train", "bus", "metro", "subway", "tram", "fuel", "gas station", "parking", "toll",
		"car rental", "travel", "trip", "luggage", "visa",
	)...)
	all = append(all, keywords(expense.CategoryUtilities,
		"electricity", "electric bill", "power bill", "water bill", "gas bill", "internet",
		"broadband", "phone bill", "mobile plan", "rent", "heating", "utility", "utilities",
		"insurance", "sewage", "trash",
	)...)
	all = append(all, keywords(expense.CategoryEntertainment,
		"netflix", "spotify", "disney", "hbo", "cinema", "movie", "movies", "concert",
		"theater", "theatre", "festival", "game", "games", "steam", "playstation", "xbox",
		"museum", "tickets", "bowling", "karaoke",
	)...)
	return all
}
