package products

// CatalogItem is one seeded drinkware entry. The memory provider matches
// against title, category, and tags.
type CatalogItem struct {
	Title    string
	Category string
	Price    float64
	Tags     []string
}

// seedCatalog mirrors the ZUS drinkware range the assistant talks about.
var seedCatalog = []CatalogItem{
	{Title: "ZUS All Day Cup 500ml - Thunder Blue", Category: "tumbler", Price: 79.0, Tags: []string{"cup", "tumbler", "blue", "500ml", "insulated", "travel"}},
	{Title: "ZUS All Day Cup 500ml - Matte Black", Category: "tumbler", Price: 79.0, Tags: []string{"cup", "tumbler", "black", "matte", "500ml", "insulated"}},
	{Title: "ZUS OG Cup 2.0 650ml", Category: "tumbler", Price: 89.0, Tags: []string{"cup", "tumbler", "650ml", "insulated", "double", "wall"}},
	{Title: "ZUS Frozee Cold Cup 720ml", Category: "cold cup", Price: 55.0, Tags: []string{"cup", "cold", "720ml", "straw", "travel"}},
	{Title: "ZUS Ceramic Mug 350ml - Sabah Series", Category: "mug", Price: 45.0, Tags: []string{"mug", "ceramic", "350ml", "gift", "series", "malaysia"}},
	{Title: "ZUS Ceramic Mug 350ml - Corak Malaysia", Category: "mug", Price: 45.0, Tags: []string{"mug", "ceramic", "350ml", "corak", "malaysia", "limited", "edition"}},
	{Title: "ZUS Stainless Steel Bottle 1L", Category: "bottle", Price: 99.0, Tags: []string{"bottle", "steel", "1l", "insulated", "thermal", "travel"}},
	{Title: "ZUS Kids Flask 400ml", Category: "bottle", Price: 65.0, Tags: []string{"bottle", "flask", "kids", "400ml", "strap"}},
	{Title: "ZUS Glass Can 475ml", Category: "glass", Price: 39.0, Tags: []string{"glass", "can", "475ml", "iced"}},
	{Title: "ZUS Tumbler Sleeve - Marble Gradient", Category: "accessory", Price: 25.0, Tags: []string{"sleeve", "accessory", "marble", "gradient", "gift"}},
	{Title: "ZUS Travel Bundle - Cup & Sleeve Set", Category: "bundle", Price: 95.0, Tags: []string{"bundle", "set", "travel", "gift", "cup", "sleeve"}},
	{Title: "ZUS OG Cup 2.0 650ml - Limited Gradient", Category: "tumbler", Price: 99.0, Tags: []string{"cup", "tumbler", "650ml", "limited", "gradient", "edition"}},
}
