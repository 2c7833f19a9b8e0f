package password

// Policy valida passwords nuevos.
type Policy struct {
	MinLength int
	Blacklist *Blacklist
}

// DefaultPolicy exige al menos 8 caracteres.
var DefaultPolicy = Policy{MinLength: 8}

// Validate devuelve razones legibles por máquina: "too_short", "blacklisted".
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	min := p.MinLength
	if min <= 0 {
		min = DefaultPolicy.MinLength
	}
	if len([]rune(s)) < min {
		reasons = append(reasons, "too_short")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}
