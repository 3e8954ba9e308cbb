// Copyright 2020, Square, Inc.

package spec

// Runs checks on dag and operator specs.
type Checker struct {
	// Checks to run. ErrorChecks are fatal on failure. Warnings are not.
	dagErrorChecks        []DagCheck
	dagWarningChecks      []DagCheck
	operatorErrorChecks   []OperatorCheck
	operatorWarningChecks []OperatorCheck
}

// Create a new Checker with the checks specified by check factories in list.
func NewChecker(checkFactories []CheckFactory) (*Checker, error) {
	checker := &Checker{
		dagErrorChecks:        []DagCheck{},
		dagWarningChecks:      []DagCheck{},
		operatorErrorChecks:   []OperatorCheck{},
		operatorWarningChecks: []OperatorCheck{},
	}

	for _, factory := range checkFactories {
		dec, err := factory.MakeDagErrorChecks()
		if err != nil {
			return nil, err
		}
		checker.dagErrorChecks = append(checker.dagErrorChecks, dec...)

		dwc, err := factory.MakeDagWarningChecks()
		if err != nil {
			return nil, err
		}
		checker.dagWarningChecks = append(checker.dagWarningChecks, dwc...)

		oec, err := factory.MakeOperatorErrorChecks()
		if err != nil {
			return nil, err
		}
		checker.operatorErrorChecks = append(checker.operatorErrorChecks, oec...)

		owc, err := factory.MakeOperatorWarningChecks()
		if err != nil {
			return nil, err
		}
		checker.operatorWarningChecks = append(checker.operatorWarningChecks, owc...)
	}

	return checker, nil
}

// Runs checks on allSpecs. Dags are checked in name order and results are
// keyed on dag name.
func (checker *Checker) RunChecks(allSpecs Specs) *CheckResults {
	results := NewCheckResults()

	for _, name := range allSpecs.Names() {
		dag := allSpecs.Dags[name]
		for _, dagCheck := range checker.dagErrorChecks {
			if err := dagCheck.CheckDag(*dag); err != nil {
				results.AddError(name, err)
			}
		}
		for _, dagCheck := range checker.dagWarningChecks {
			if err := dagCheck.CheckDag(*dag); err != nil {
				results.AddWarning(name, err)
			}
		}

		for _, op := range dag.Operators {
			for _, opCheck := range checker.operatorErrorChecks {
				if err := opCheck.CheckOperator(name, *op); err != nil {
					results.AddError(name, err)
				}
			}
			for _, opCheck := range checker.operatorWarningChecks {
				if err := opCheck.CheckOperator(name, *op); err != nil {
					results.AddWarning(name, err)
				}
			}
		}
	}

	return results
}
