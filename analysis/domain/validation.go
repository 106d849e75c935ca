package domain

// ValidationResult acumula todas as falhas de validação, na ordem em que as
// checagens rodaram.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// First devolve a primeira mensagem, que é a exposta ao chamador.
func (v ValidationResult) First() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0]
}
