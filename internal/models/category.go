package models

// Category is an expense category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Categories lists the categories an expense can be filed under. The last
// entry is the fallback.
var Categories = []Category{
	{ID: "food", Name: "Food & Dining"},
	{ID: "groceries", Name: "Groceries"},
	{ID: "transport", Name: "Transport"},
	{ID: "home", Name: "Home & Utilities"},
	{ID: "travel", Name: "Travel"},
	{ID: "entertainment", Name: "Entertainment"},
	{ID: "gifts", Name: "Gifts"},
	{ID: "health", Name: "Health"},
	{ID: "work", Name: "Work"},
	{ID: "other", Name: "Other"},
}

// CategoryByID returns the category with the given id, or "other" if none matches.
func CategoryByID(id string) Category {
	for _, c := range Categories {
		if c.ID == id {
			return c
		}
	}
	return Categories[len(Categories)-1]
}
