package models

// Category groups tasks and events; each owns a fixed list of sub-categories.
type Category struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"sub_categories"`
}

// Categories is the catalogue offered to the task and event forms, in display order.
var Categories = []Category{
	{Name: "Routine", SubCategories: []string{"Sleep", "Meals", "Exercise", "Hygiene"}},
	{Name: "Break", SubCategories: []string{"Unnecessary", "Short", "Long", "Social", "Rest", "Mindfulness", "Digital Detox", "Miscellaneous"}},
	{Name: "Study", SubCategories: []string{"Frontend", "Backend", "Fullstack", "Projects", "DevOps", "System Design", "DSA", "Research", "Miscellaneous"}},
	{Name: "Work", SubCategories: []string{"Meetings", "Project Work", "Emails", "Follow-ups", "Reports", "Miscellaneous"}},
	{Name: "Home", SubCategories: []string{"Home Maintenance", "Grocery Shopping", "Home Repairs", "Cleaning", "Cooking", "Laundry", "Miscellaneous"}},
	{Name: "Personal", SubCategories: []string{"Family Time", "Self-Care", "Hobbies", "Socializing", "Volunteering", "Miscellaneous"}},
	{Name: "Finance", SubCategories: []string{"Budgeting", "Investing", "Bill Payments", "Money Transfer", "Savings", "Financial Planning", "Miscellaneous"}},
	{Name: "Entertainment", SubCategories: []string{"YouTube", "LinkedIn", "Music", "Miscellaneous"}},
	{Name: "Health", SubCategories: []string{"Doctor's Appointments", "Medication", "Miscellaneous"}},
	{Name: "Shopping", SubCategories: []string{"Groceries", "Clothing", "Electronics", "Home Goods", "Gifts", "Miscellaneous"}},
	{Name: "Travel", SubCategories: []string{"Planning", "Packing", "Travelling", "Accommodation", "Miscellaneous"}},
	{Name: "Other", SubCategories: []string{"Miscellaneous"}},
}

// KnownCategory reports whether category (and sub-category, when non-empty) is in the catalogue.
func KnownCategory(category, subCategory string) bool {
	for _, c := range Categories {
		if c.Name != category {
			continue
		}
		if subCategory == "" {
			return true
		}
		for _, sc := range c.SubCategories {
			if sc == subCategory {
				return true
			}
		}
		return false
	}
	return false
}
