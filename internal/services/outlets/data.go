package outlets

import "github.com/zus-planner-poc/server/internal/agent/model"

// seedOutlets mirrors the outlet table the text-to-SQL service queries.
var seedOutlets = []model.OutletRow{
	{Name: "ZUS Coffee SS2", City: "Petaling Jaya", State: "Selangor", PostalCode: "47300", Address: "21 Jalan SS2/64", OpenTime: "07:30", CloseTime: "21:30", Services: "dine-in,takeaway,delivery"},
	{Name: "ZUS Coffee The Curve", City: "Petaling Jaya", State: "Selangor", PostalCode: "47810", Address: "Lot G-12 The Curve, Mutiara Damansara", OpenTime: "08:00", CloseTime: "22:00", Services: "dine-in,takeaway"},
	{Name: "ZUS Coffee KLCC", City: "Kuala Lumpur", State: "Kuala Lumpur", PostalCode: "50088", Address: "Concourse Level, Suria KLCC", OpenTime: "08:00", CloseTime: "22:00", Services: "takeaway,delivery"},
	{Name: "ZUS Coffee Pavilion Bukit Bintang", City: "Kuala Lumpur", State: "Kuala Lumpur", PostalCode: "55100", Address: "Level 1, Pavilion KL", OpenTime: "10:00", CloseTime: "22:00", Services: "dine-in,takeaway"},
	{Name: "ZUS Coffee Subang Jaya SS15", City: "Subang Jaya", State: "Selangor", PostalCode: "47500", Address: "43 Jalan SS15/8A", OpenTime: "07:00", CloseTime: "21:00", Services: "dine-in,takeaway,delivery"},
	{Name: "ZUS Coffee Sunway Pyramid", City: "Bandar Sunway", State: "Selangor", PostalCode: "47500", Address: "LG2, Sunway Pyramid", OpenTime: "10:00", CloseTime: "22:00", Services: "dine-in,takeaway"},
	{Name: "ZUS Coffee Cyberjaya", City: "Cyberjaya", State: "Selangor", PostalCode: "63000", Address: "Shaftsbury Square", OpenTime: "07:30", CloseTime: "20:30", Services: "takeaway,delivery"},
	{Name: "ZUS Coffee Putrajaya IOI City", City: "Putrajaya", State: "Putrajaya", PostalCode: "62502", Address: "L1, IOI City Mall", OpenTime: "10:00", CloseTime: "22:00", Services: "dine-in,takeaway"},
	{Name: "ZUS Coffee Shah Alam Seksyen 7", City: "Shah Alam", State: "Selangor", PostalCode: "40000", Address: "7 Jalan Plumbum", OpenTime: "07:00", CloseTime: "21:00", Services: "dine-in,takeaway,delivery"},
	{Name: "ZUS Coffee Klang Bukit Tinggi", City: "Klang", State: "Selangor", PostalCode: "41200", Address: "Lorong Batu Nilam 3A", OpenTime: "07:30", CloseTime: "21:30", Services: "dine-in,takeaway"},
	{Name: "ZUS Coffee Puchong Setiawalk", City: "Puchong", State: "Selangor", PostalCode: "47160", Address: "Block I, Setiawalk", OpenTime: "08:00", CloseTime: "21:00", Services: "takeaway,delivery"},
	{Name: "ZUS Coffee Kajang Prima", City: "Kajang", State: "Selangor", PostalCode: "43000", Address: "Jalan Prima Saujana", OpenTime: "07:30", CloseTime: "21:00", Services: "dine-in,takeaway"},
}

// cityAliases maps canonical location names to the variants users type.
var cityAliases = map[string][]string{
	"bandar sunway":  {"bandar sunway", "sunway"},
	"cyberjaya":      {"cyberjaya"},
	"kajang":         {"kajang"},
	"klang":          {"klang", "port klang"},
	"klcc":           {"klcc"},
	"kuala lumpur":   {"kuala lumpur", "kualalumpur", "kl"},
	"petaling jaya":  {"petaling jaya", "petalingjaya", "pj"},
	"puchong":        {"puchong"},
	"putrajaya":      {"putrajaya"},
	"shah alam":      {"shah alam"},
	"ss2":            {"ss2", "ss 2"},
	"subang jaya":    {"subang jaya", "subangjaya", "ss15"},
	"bukit bintang":  {"bukit bintang", "pavilion"},
	"the curve":      {"the curve", "mutiara damansara"},
}
