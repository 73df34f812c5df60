package form

import "github.com/goliatone/go-creditform/pkg/schema"

// FieldView is what a front end needs to render one input: its metadata,
// the current raw value, the current error, and a way to write back.
type FieldView struct {
	Name        string
	Label       string
	Help        string
	Kind        schema.Kind
	Options     []string
	Requirement string
	Value       string
	Error       string

	session *Session
}

// Update writes raw into the bound session.
func (v FieldView) Update(raw string) error {
	return v.session.Update(v.Name, raw)
}

// Check validates raw without storing it. The error, when not nil, is a
// *validation.FieldError with the message Submit would attach.
func (v FieldView) Check(raw string) error {
	if fe := v.session.engine.CheckField(v.Name, raw); fe != nil {
		return fe
	}
	return nil
}

// Invalid reports whether the field carries an error message.
func (v FieldView) Invalid() bool {
	return v.Error != ""
}

// Fields returns one view per schema field, in schema order.
func (s *Session) Fields() []FieldView {
	state := s.State()
	fields := s.engine.Schema().Fields
	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{
			Name:        f.Name,
			Label:       f.DisplayLabel(),
			Help:        f.Help,
			Kind:        f.Constraint.Kind(),
			Options:     f.Options(),
			Requirement: f.Constraint.Describe(),
			Value:       state.Value(f.Name),
			Error:       state.Error(f.Name),
			session:     s,
		})
	}
	return views
}

// Field returns the view for name.
func (s *Session) Field(name string) (FieldView, bool) {
	for _, v := range s.Fields() {
		if v.Name == name {
			return v, true
		}
	}
	return FieldView{}, false
}
