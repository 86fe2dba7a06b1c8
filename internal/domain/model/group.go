package model

// Group is a forward line or defense pair.
// A group with fewer members than Size is flagged Incomplete.
type Group struct {
	Role       Role     `json:"role"`
	Size       int      `json:"size"`
	Members    []Player `json:"members"`
	Incomplete bool     `json:"incomplete"`
}

// Total sums the members' talent for the group's role.
func (g Group) Total() float64 {
	var sum float64
	for _, p := range g.Members {
		sum += p.Talent(g.Role)
	}
	return sum
}

// Names returns the member names in draft order.
func (g Group) Names() []string {
	out := make([]string, len(g.Members))
	for i, p := range g.Members {
		out[i] = p.Name
	}
	return out
}

// Team is two forward lines and two defense pairs in a standard split.
type Team struct {
	Forwards []Group `json:"forwards"`
	Defense  []Group `json:"defense"`
}

// Groups returns forward lines followed by defense pairs.
func (t Team) Groups() []Group {
	out := make([]Group, 0, len(t.Forwards)+len(t.Defense))
	out = append(out, t.Forwards...)
	return append(out, t.Defense...)
}

// Players lists every member of every group.
func (t Team) Players() []Player {
	var out []Player
	for _, g := range t.Groups() {
		out = append(out, g.Members...)
	}
	return out
}

// Total is the sum of group totals.
func (t Team) Total() float64 {
	var sum float64
	for _, g := range t.Groups() {
		sum += g.Total()
	}
	return sum
}

// Average is the mean role talent per player, or 0 for an empty team.
func (t Team) Average() float64 {
	n := len(t.Players())
	if n == 0 {
		return 0
	}
	return t.Total() / float64(n)
}
