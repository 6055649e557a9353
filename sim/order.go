package sim

// AcquisitionOrder decides which of a philosopher's two forks is taken first.
type AcquisitionOrder interface {
	Name() string
	Forks(id int, left, right *Fork) (first, second *Fork)
}

// ParityOrder has even philosophers take left then right and odd philosophers
// right then left. Neighbors contend for their shared fork first, so no ring
// of holders each waiting on the next can form.
type ParityOrder struct{}

func (ParityOrder) Name() string { return "parity" }

func (ParityOrder) Forks(id int, left, right *Fork) (*Fork, *Fork) {
	if id%2 == 0 {
		return left, right
	}
	return right, left
}

// LeftFirstOrder has every philosopher take left then right. When all
// philosophers grab their left fork together, each waits forever on its
// neighbor: the classic deadlock. Use with an acquire timeout.
type LeftFirstOrder struct{}

func (LeftFirstOrder) Name() string { return "left-first" }

func (LeftFirstOrder) Forks(_ int, left, right *Fork) (*Fork, *Fork) {
	return left, right
}

// ValidOrders is the set of recognized acquisition order names.
var ValidOrders = map[string]bool{"": true, "parity": true, "left-first": true}

// IsValidOrder returns true if name is a recognized acquisition order.
func IsValidOrder(name string) bool { return ValidOrders[name] }

// NewAcquisitionOrder creates an acquisition order by name.
// An empty string defaults to parity.
func NewAcquisitionOrder(name string) (AcquisitionOrder, error) {
	switch name {
	case "", "parity":
		return ParityOrder{}, nil
	case "left-first":
		return LeftFirstOrder{}, nil
	default:
		return nil, configErr("acquisition order", name, "unknown order")
	}
}
