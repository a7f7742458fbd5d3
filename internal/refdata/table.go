package refdata

// referenceTable is the built-in appliance energy dataset. Values reflect
// typical residential usage in the United States. Declaration order is the
// fuzzy-match scan order; keep new entries grouped by category and be aware
// that reordering changes which entry wins an ambiguous substring match.
var referenceTable = []entry{
	// Kitchen
	{"refrigerator", Profile{Category: "Kitchen", TypicalWattage: 150, UsageHoursPerDay: 24}},
	{"microwave", Profile{Category: "Kitchen", TypicalWattage: 1200, UsageHoursPerDay: 0.5}},
	{"oven", Profile{Category: "Kitchen", TypicalWattage: 2400, UsageHoursPerDay: 1}},
	{"dishwasher", Profile{Category: "Kitchen", TypicalWattage: 1800, UsageHoursPerDay: 1}},
	{"toaster", Profile{Category: "Kitchen", TypicalWattage: 1200, UsageHoursPerDay: 0.2}},
	{"coffee maker", Profile{Category: "Kitchen", TypicalWattage: 1000, UsageHoursPerDay: 0.5}},

	// Laundry
	{"washer", Profile{Category: "Laundry", TypicalWattage: 500, UsageHoursPerDay: 1}},
	{"dryer", Profile{Category: "Laundry", TypicalWattage: 3000, UsageHoursPerDay: 1}},
	{"washing machine", Profile{Category: "Laundry", TypicalWattage: 500, UsageHoursPerDay: 1}},

	// Climate
	{"air conditioner", Profile{Category: "Climate", TypicalWattage: 3500, UsageHoursPerDay: 8}},
	{"heater", Profile{Category: "Climate", TypicalWattage: 1500, UsageHoursPerDay: 6}},
	{"fan", Profile{Category: "Climate", TypicalWattage: 75, UsageHoursPerDay: 8}},

	// Electronics
	{"television", Profile{Category: "Electronics", TypicalWattage: 150, UsageHoursPerDay: 5}},
	{"computer", Profile{Category: "Electronics", TypicalWattage: 200, UsageHoursPerDay: 8}},
	{"monitor", Profile{Category: "Electronics", TypicalWattage: 50, UsageHoursPerDay: 8}},
	{"laptop", Profile{Category: "Electronics", TypicalWattage: 50, UsageHoursPerDay: 8}},

	// Lighting
	{"lamp", Profile{Category: "Lighting", TypicalWattage: 60, UsageHoursPerDay: 5}},

	// Water Heating
	{"water heater", Profile{Category: "Water Heating", TypicalWattage: 4500, UsageHoursPerDay: 3}},
}
