package delivery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// Routing decides who receives a report. Keys name record fields.
type Routing struct {
	ConsultantKey   string              `json:"consultant_key"`
	ManagerKey      string              `json:"manager_key"`
	BusinessUnitKey string              `json:"business_unit_key"`
	AlwaysCc        []string            `json:"always_cc"`
	UnitCc          map[string][]string `json:"unit_cc"` // business-unit substring -> cc addresses
	CcManager       bool                `json:"cc_manager"`
}

// DefaultRouting reads the live form's columns and copies the manager
func DefaultRouting() Routing {
	return Routing{
		ConsultantKey:   "Consultant Email",
		ManagerKey:      "Manager Email",
		BusinessUnitKey: "Business Unit",
		CcManager:       true,
	}
}

// Envelope holds the addresses for one message
type Envelope struct {
	To []string `json:"to"`
	Cc []string `json:"cc,omitempty"`
}

// All returns every address the message is delivered to
func (e Envelope) All() []string {
	all := make([]string, 0, len(e.To)+len(e.Cc))
	all = append(all, e.To...)
	return append(all, e.Cc...)
}

// Recipients builds the envelope for rec. The consultant is the only To
// address; Cc collects the fixed addresses, the business-unit addresses and
// the manager, without duplicates.
func Recipients(rec types.Record, routing Routing) (Envelope, error) {
	to, ok := address(rec, routing.ConsultantKey)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: field %q", ErrNoRecipient, routing.ConsultantKey)
	}

	env := Envelope{To: []string{to}}
	seen := map[string]bool{strings.ToLower(to): true}
	add := func(addrs ...string) {
		for _, a := range addrs {
			a = strings.TrimSpace(a)
			if a == "" || seen[strings.ToLower(a)] {
				continue
			}
			seen[strings.ToLower(a)] = true
			env.Cc = append(env.Cc, a)
		}
	}

	add(routing.AlwaysCc...)

	if unit, ok := rec.Lookup(routing.BusinessUnitKey); ok {
		units := make([]string, 0, len(routing.UnitCc))
		for u := range routing.UnitCc {
			units = append(units, u)
		}
		sort.Strings(units)
		for _, u := range units {
			if u != "" && strings.Contains(unit, u) {
				add(routing.UnitCc[u]...)
			}
		}
	}

	if routing.CcManager {
		if manager, ok := address(rec, routing.ManagerKey); ok {
			add(manager)
		}
	}
	return env, nil
}

func address(rec types.Record, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	v, ok := rec.Lookup(key)
	v = strings.TrimSpace(v)
	if !ok || !strings.Contains(v, "@") {
		return "", false
	}
	return v, true
}
