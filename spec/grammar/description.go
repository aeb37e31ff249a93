package grammar

type Terminal struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Pattern       string `json:"pattern,omitempty"`
	Literal       bool   `json:"literal,omitempty"`
	Skip          bool   `json:"skip,omitempty"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
}

type NonTerminal struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type ReportProduction struct {
	Number        int    `json:"number"`
	LHS           int    `json:"lhs"`
	RHS           []int  `json:"rhs"`
	Text          string `json:"text"`
	Precedence    int    `json:"prec"`
	Associativity string `json:"assoc"`
}

type Item struct {
	Production int    `json:"production"`
	Dot        int    `json:"dot"`
	Text       string `json:"text"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type Reduce struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type Contender struct {
	Production string `json:"production"`
	Action     Action `json:"action"`
}

type Conflict struct {
	Kind       string       `json:"kind"`
	Terminal   int          `json:"terminal"`
	Contenders []*Contender `json:"contenders"`
	Chosen     int          `json:"chosen"`
	ResolvedBy string       `json:"resolved_by"`
	Explicit   bool         `json:"explicit"`
}

type ReportState struct {
	Number    int           `json:"number"`
	Kernel    []*Item       `json:"kernel"`
	Shift     []*Transition `json:"shift"`
	Reduce    []*Reduce     `json:"reduce"`
	GoTo      []*Transition `json:"goto"`
	Accept    bool          `json:"accept"`
	Default   Action        `json:"default"`
	Recovery  *Item         `json:"recovery"`
	Conflicts []*Conflict   `json:"conflicts"`
}

type Report struct {
	Name         string              `json:"name"`
	Terminals    []*Terminal         `json:"terminals"`
	NonTerminals []*NonTerminal      `json:"non_terminals"`
	Productions  []*ReportProduction `json:"productions"`
	States       []*ReportState      `json:"states"`
}

// ImplicitConflictCount returns the number of conflicts no precedence or associativity declaration
// resolved.
func (r *Report) ImplicitConflictCount() int {
	n := 0
	for _, s := range r.States {
		for _, c := range s.Conflicts {
			if !c.Explicit {
				n++
			}
		}
	}
	return n
}
