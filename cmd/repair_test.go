package cmd

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorepair.dev/pkg/gorepair/internal/domain"
	domainmocks "gorepair.dev/pkg/gorepair/internal/domain/mocks"
	m "gorepair.dev/pkg/gorepair/internal/model"
)

func TestRepairCmd_Defaults(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRepairCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	ga := m.DefaultGAConfig()
	eval := m.DefaultEvaluatorConfig()

	mockWorkflow.On("Repair", mock.Anything, mock.MatchedBy(func(args domain.RepairArgs) bool {
		return args.Benchmark == m.Path("examples/offbyone") &&
			args.Output == m.Path("out") &&
			args.GA.Population == ga.Population &&
			args.GA.MaxGenerations == ga.MaxGenerations &&
			args.GA.TimeLimit == ga.TimeLimit &&
			args.Evaluator.NegativeWeight == eval.NegativeWeight &&
			args.Evaluator.Parallel == eval.Parallel
	})).Return(m.RepairReport{Found: true}, nil)

	cmd.SetArgs([]string{"repair", "examples/offbyone"})
	err := cmd.Execute()
	require.NoError(t, err)

	mockWorkflow.AssertExpectations(t)
}

func TestRepairCmd_FlagsOverrideDefaults(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRepairCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	mockWorkflow.EXPECT().Repair(mock.Anything, mock.MatchedBy(func(args domain.RepairArgs) bool {
		return args.GA.Population == 12 &&
			args.GA.MaxGenerations == 7 &&
			args.GA.TimeLimit == 90*time.Second &&
			args.GA.Seed == 99 &&
			args.Evaluator.Parallel == 3 &&
			args.Output == m.Path("./reports-dir")
	})).Return(m.RepairReport{}, nil).Once()

	cmd.SetArgs([]string{
		"repair", "bench",
		"--population", "12",
		"-g", "7",
		"--time-limit", "90s",
		"--seed", "99",
		"--parallel", "3",
		"--output", "./reports-dir",
	})
	err := cmd.Execute()
	require.NoError(t, err)
}

func TestRepairCmd_RequiresBenchmark(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRepairCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	cmd.SetArgs([]string{"repair"})
	err := cmd.Execute()
	require.Error(t, err)

	mockWorkflow.AssertNotCalled(t, "Repair", mock.Anything, mock.Anything)
}

func TestRepairCmd_PropagatesWorkflowError(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRepairCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	wantErr := errors.New("baseline does not compile")
	mockWorkflow.EXPECT().Repair(mock.Anything, mock.Anything).Return(m.RepairReport{}, wantErr).Once()

	cmd.SetArgs([]string{"repair", "bench"})
	err := cmd.Execute()
	require.ErrorIs(t, err, wantErr)
}

func TestRepairCmd_RejectsInvalidPopulation(t *testing.T) {
	mockWorkflow := domainmocks.NewMockWorkflow(t)

	cmd := newRootCmd()
	cmd.AddCommand(newRepairCmd())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	originalWorkflow := workflow
	workflow = mockWorkflow
	defer func() { workflow = originalWorkflow }()

	cmd.SetArgs([]string{"repair", "bench", "--population", "1"})
	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid ga config")
}
