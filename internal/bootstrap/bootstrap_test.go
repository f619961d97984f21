package bootstrap

import (
	"context"
	"errors"
	"testing"

	platformerrors "envisonet-server-go/internal/platform/errors"
)

func TestInitGraphDependenciesAreOrdered(t *testing.T) {
	completed := map[string]struct{}{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				t.Errorf("step %s depends on %s which is not yet completed", step.ID, dep)
			}
		}
		if step.Execute == nil {
			t.Errorf("step %s has no execute function", step.ID)
		}
		completed[step.ID] = struct{}{}
	}
}

func TestExecuteInitSteps_UnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "second",
			DependsOn: []string{"first"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindBootstrap) {
		t.Errorf("expected bootstrap kind, got %v", err)
	}
}

func TestExecuteInitSteps_WrapsStepErrors(t *testing.T) {
	boom := errors.New("boom")
	steps := []initStep{
		{
			ID:      "fails",
			Kind:    platformerrors.KindStorage,
			Execute: func(context.Context, *appState) error { return boom },
		},
	}

	err := executeInitSteps(context.Background(), steps, &appState{})
	if err == nil {
		t.Fatal("expected step error")
	}
	if !platformerrors.IsKind(err, platformerrors.KindStorage) {
		t.Errorf("expected storage kind, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected original error in chain")
	}
}

func TestExecuteInitSteps_RunsInOrder(t *testing.T) {
	var order []string
	record := func(id string) stepFn {
		return func(context.Context, *appState) error {
			order = append(order, id)
			return nil
		}
	}

	steps := []initStep{
		{ID: "a", Execute: record("a")},
		{ID: "b", DependsOn: []string{"a"}, Execute: record("b")},
		{ID: "c", DependsOn: []string{"a", "b"}, Execute: record("c")},
	}

	if err := executeInitSteps(context.Background(), steps, &appState{}); err != nil {
		t.Fatalf("executeInitSteps error: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("unexpected execution order: %v", order)
	}
}
