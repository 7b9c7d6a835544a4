package store

// SeedDemo loads the demo fixtures used when no database is configured: a
// funded buyer, a seller, and a handful of datasets across categories.
func SeedDemo(s *MemoryStore) {
	s.AddUser(User{
		Email:    "buyer@example.com",
		Username: "buyer",
		FullName: "John Buyer",
		IsActive: true,
		Balance:  1000,
	})
	seller := s.AddUser(User{
		Email:    "seller@example.com",
		Username: "seller",
		FullName: "Jane Seller",
		IsSeller: true,
		IsActive: true,
	})

	datasets := []Dataset{
		{
			Title:         "E-commerce Sales Data 2023",
			Description:   "Comprehensive sales data from multiple e-commerce platforms including transaction details, customer demographics, and product categories.",
			Category:      "E-commerce",
			Tags:          []string{"sales", "transactions", "retail", "analytics"},
			Price:         49.99,
			SizeMB:        125.5,
			RowCount:      50000,
			ColumnCount:   15,
			Format:        "CSV",
			Rating:        4.6,
			ReviewCount:   212,
			DownloadCount: 830,
		},
		{
			Title:         "Weather Data - Global Cities",
			Description:   "Daily weather data for 100+ global cities including temperature, humidity, precipitation, and wind speed.",
			Category:      "Weather",
			Tags:          []string{"weather", "climate", "temperature", "global"},
			Price:         29.99,
			SizeMB:        45.2,
			RowCount:      36500,
			ColumnCount:   8,
			Format:        "JSON",
			Rating:        4.1,
			ReviewCount:   98,
			DownloadCount: 410,
		},
		{
			Title:         "Social Media Sentiment Analysis",
			Description:   "Pre-processed sentiment analysis data from Twitter and Reddit posts across various topics.",
			Category:      "Social Media",
			Tags:          []string{"sentiment", "social", "nlp", "text"},
			Price:         79.99,
			SizeMB:        250.8,
			RowCount:      100000,
			ColumnCount:   5,
			Format:        "Parquet",
			Rating:        4.8,
			ReviewCount:   340,
			DownloadCount: 960,
		},
		{
			Title:         "Stock Market Historical Data",
			Description:   "Historical stock prices and trading volumes for S&P 500 companies from 2010-2023.",
			Category:      "Finance",
			Tags:          []string{"stocks", "finance", "trading", "historical"},
			Price:         99.99,
			SizeMB:        500.3,
			RowCount:      200000,
			ColumnCount:   10,
			Format:        "CSV",
			Rating:        4.4,
			ReviewCount:   175,
			DownloadCount: 620,
		},
		{
			Title:         "Customer Reviews Dataset",
			Description:   "Customer reviews and ratings for products across multiple categories with metadata.",
			Category:      "E-commerce",
			Tags:          []string{"reviews", "ratings", "customers", "products"},
			Price:         39.99,
			SizeMB:        78.6,
			RowCount:      75000,
			ColumnCount:   6,
			Format:        "JSON",
			Rating:        3.9,
			ReviewCount:   64,
			DownloadCount: 290,
		},
	}
	for _, d := range datasets {
		d.SellerID = seller.ID
		d.IsActive = true
		s.AddDataset(d)
	}
}
