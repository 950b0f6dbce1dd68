package memory

// SampleHeader returns the column names of the built-in dataset.
func SampleHeader() []string {
	return []string{"Transaction Date", "Amount", "quantity", "Quantity unit", "category_group", "standardized_name", "Supplier", "PO Number"}
}

// SampleRows returns a small dataset spanning three units, used when no seed
// file is present.
func SampleRows() [][]string {
	return [][]string{
		{"2024-01-01", "100", "5", "KG", "Dairy", "Milk", "Alpine Farms", "PO-1001"},
		{"2024-01-02", "50", "2", "KG", "Dairy", "Milk", "Brookside Dairy", "PO-1002"},
		{"2024-01-02", "240.5", "12", "KG", "Produce", "Tomatoes", "Green Valley", "PO-1003"},
		{"2024-01-04", "80", "4", "KG", "Produce", "Onions", "Green Valley", "PO-1004"},
		{"2024-01-05", "35.25", "1.5", "KG", "Dairy", "Aged Parmigiano Reggiano DOP", "Alpine Farms", "PO-1005"},
		{"2024-01-05", "410", "20", "KG", "Meat", "Chicken Breast", "Coastal Meats", "PO-1006"},
		{"2024-01-07", "125", "6", "KG", "Meat", "Ground Beef", "Coastal Meats", "PO-1007"},
		{"2024-01-08", "60", "3", "KG", "Bakery", "Flour", "Mill & Co", ""},
		{"2024-01-01", "42", "24", "L", "Beverages", "Orange Juice", "Sunny Drinks", "PO-2001"},
		{"2024-01-03", "18", "12", "L", "Dairy", "Whole Milk", "Brookside Dairy", "PO-2002"},
		{"2024-01-06", "95", "40", "L", "Beverages", "Sparkling Water", "Sunny Drinks", "PO-2003"},
		{"2024-01-08", "30", "5", "L", "Cleaning", "Floor Cleaner", "", "PO-2004"},
		{"2024-01-02", "12", "100", "PCS", "Packaging", "Paper Bags", "PackRight", "PO-3001"},
		{"2024-01-06", "48", "400", "PCS", "Packaging", "Takeaway Boxes", "PackRight", "PO-3002"},
	}
}
