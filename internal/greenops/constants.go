package greenops

// Equivalency divisors in kg CO2e per unit of activity, from the EPA
// greenhouse gas equivalencies calculator (2024 edition):
//
//	equivalency = kg_CO2e / factor
const (
	// MilesDrivenFactor is kg CO2e per mile in an average passenger car.
	MilesDrivenFactor = 0.192

	// SmartphoneChargeFactor is kg CO2e per full smartphone charge.
	SmartphoneChargeFactor = 0.00822

	// TreeSeedlingFactor is kg CO2e taken up by one urban tree seedling grown
	// for ten years.
	TreeSeedlingFactor = 60.0
)

// Mass conversions from kilograms.
const (
	KgPerGram   = 0.001
	KgPerTonne  = 1000.0
	KgPerPound  = 0.453592
	kgPerKg     = 1.0
	defaultUnit = UnitKg
)

// Display thresholds.
const (
	// MinEquivalencyKg is the smallest total that gets equivalencies. Per-use
	// product footprints are often grams, where "0 miles" says nothing.
	MinEquivalencyKg = 0.1

	// LargeNumberThreshold switches to "~X.X million" notation.
	LargeNumberThreshold = 1_000_000

	// BillionThreshold switches to "~X.X billion" notation.
	BillionThreshold = 1_000_000_000
)
