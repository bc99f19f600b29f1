package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocjay1/ledger-entry/internal/models"
	"github.com/rocjay1/ledger-entry/internal/schema"
)

type fieldView struct {
	Name     models.FieldName `json:"name"`
	Input    models.InputType `json:"input"`
	Label    string           `json:"label"`
	Required bool             `json:"required"`
}

// kindView is the form layout of one kind.
type kindView struct {
	Kind      models.Kind `json:"kind"`
	Fields    []fieldView `json:"fields"`
	Behaviors []string    `json:"behaviors"`
}

func describeKind(reg *schema.Registry, k models.Kind) kindView {
	fs := reg.For(k)
	v := kindView{Kind: k, Fields: []fieldView{}, Behaviors: fs.Behaviors.Names()}
	if v.Behaviors == nil {
		v.Behaviors = []string{}
	}
	for _, name := range reg.VisibleFields(k) {
		rule, _ := models.RuleFor(name)
		v.Fields = append(v.Fields, fieldView{
			Name:     name,
			Input:    rule.Input,
			Label:    rule.Label,
			Required: fs.Required.Contains(name),
		})
	}
	return v
}

func (d *Dependencies) registry() *schema.Registry {
	if d.Sessions == nil {
		return schema.Default()
	}
	return d.Sessions.Registry()
}

// HandleListKinds returns the form layout of every selectable kind.
func (d *Dependencies) HandleListKinds(w http.ResponseWriter, r *http.Request) {
	reg := d.registry()
	kinds := models.Kinds()
	out := make([]kindView, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, describeKind(reg, k))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (d *Dependencies) HandleGetKind(w http.ResponseWriter, r *http.Request) {
	k, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil || !k.Valid() {
		WriteError(w, http.StatusNotFound, "unknown kind")
		return
	}
	WriteJSON(w, http.StatusOK, describeKind(d.registry(), k))
}
