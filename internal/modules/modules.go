// Package modules registers every form module with a forms.Registry.
package modules

import (
	"fmt"

	"github.com/hausee/navigator-backend/internal/forms"
	"github.com/hausee/navigator-backend/internal/modules/agentmatch"
	"github.com/hausee/navigator-backend/internal/modules/assessment"
	"github.com/hausee/navigator-backend/internal/modules/budget"
	"github.com/hausee/navigator-backend/internal/modules/catalog"
	"github.com/hausee/navigator-backend/internal/modules/checklist"
	"github.com/hausee/navigator-backend/internal/modules/downpayment"
	"github.com/hausee/navigator-backend/internal/modules/dreamhome"
	"github.com/hausee/navigator-backend/internal/modules/evaluation"
	"github.com/hausee/navigator-backend/internal/modules/guide"
)

func register[P any](r *forms.Registry, cat *catalog.Catalog, id forms.ModuleID, build func(catalog.Entry) forms.Module[P]) error {
	e, ok := cat.Entry(string(id))
	if !ok {
		return fmt.Errorf("catalog has no entry for %s", id)
	}
	forms.Register(r, build(e))
	return nil
}

// RegisterAll binds each module to its catalog entry.
func RegisterAll(r *forms.Registry, cat *catalog.Catalog) error {
	for _, err := range []error{
		register(r, cat, dreamhome.ModuleID, dreamhome.New),
		register(r, cat, assessment.ModuleID, assessment.New),
		register(r, cat, budget.ModuleID, budget.New),
		register(r, cat, downpayment.ModuleID, downpayment.New),
		register(r, cat, checklist.MortgageModuleID, checklist.NewMortgage),
		register(r, cat, checklist.MovingModuleID, checklist.NewMoving),
		register(r, cat, evaluation.ModuleID, evaluation.New),
		register(r, cat, agentmatch.ModuleID, agentmatch.New),
		register(r, cat, guide.ModuleID, guide.New),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Tables lists the remote table of every catalog module.
func Tables(cat *catalog.Catalog) []string {
	out := make([]string, 0, len(cat.Modules))
	for _, e := range cat.Modules {
		out = append(out, e.Table)
	}
	return out
}
