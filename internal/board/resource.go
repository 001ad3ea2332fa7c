package board

// Resource is a commodity burned by plants.
type Resource string

const (
	Coal    Resource = "coal"
	Oil     Resource = "oil"
	Garbage Resource = "garbage"
	Uranium Resource = "uranium"
)

// Resources lists every resource kind in a fixed order. Iterating a map of
// resources is never used where order matters; callers range over this.
var Resources = []Resource{Coal, Oil, Garbage, Uranium}

func (r Resource) String() string {
	return string(r)
}

// Valid reports whether r is a known resource kind.
func (r Resource) Valid() bool {
	switch r {
	case Coal, Oil, Garbage, Uranium:
		return true
	}
	return false
}

// MajorPhase is the coarse game era. It selects the refill table row.
type MajorPhase string

const (
	Step1 MajorPhase = "step1"
	Step2 MajorPhase = "step2"
	Step3 MajorPhase = "step3"
)

func (m MajorPhase) String() string {
	return string(m)
}

// Next returns the following step, or m itself once the last step is reached.
func (m MajorPhase) Next() MajorPhase {
	switch m {
	case Step1:
		return Step2
	case Step2:
		return Step3
	}
	return m
}
