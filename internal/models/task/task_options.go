package task

// Patch - частичное обновление: nil означает "поле не меняется"
type Patch struct {
	Title       *string
	Description *string
	DueDate     *Date
	Priority    *Priority
	Status      *Status
}

// Field - пара имя поля/значение, имена совпадают с колонками таблицы tasks
type Field struct {
	Name  string
	Value any
}

type PatchOption func(*Patch)

func NewPatch(options ...PatchOption) Patch {
	var p Patch
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&p)
	}
	return p
}

func WithTitle(title string) PatchOption {
	if title == "" {
		return nil
	}
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) PatchOption {
	if description == "" {
		return nil
	}
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithDueDate(dueDate Date) PatchOption {
	if dueDate.IsZero() {
		return nil
	}
	return func(p *Patch) {
		p.DueDate = &dueDate
	}
}

func WithPriority(priority Priority) PatchOption {
	if priority == "" {
		return nil
	}
	return func(p *Patch) {
		p.Priority = &priority
	}
}

func WithStatus(status Status) PatchOption {
	if status == "" {
		return nil
	}
	return func(p *Patch) {
		p.Status = &status
	}
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil
}

func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

// Fields возвращает заданные поля в фиксированном порядке.
// Дата отдаётся как time.Time, чтобы драйверы писали её в DATE.
func (p Patch) Fields() []Field {
	fields := make([]Field, 0, 5)
	if p.Title != nil {
		fields = append(fields, Field{Name: "title", Value: *p.Title})
	}
	if p.Description != nil {
		fields = append(fields, Field{Name: "description", Value: *p.Description})
	}
	if p.DueDate != nil {
		fields = append(fields, Field{Name: "due_date", Value: p.DueDate.Time()})
	}
	if p.Priority != nil {
		fields = append(fields, Field{Name: "priority", Value: string(*p.Priority)})
	}
	if p.Status != nil {
		fields = append(fields, Field{Name: "status", Value: string(*p.Status)})
	}
	return fields
}

func (p Patch) FieldNames() []string {
	fields := p.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
