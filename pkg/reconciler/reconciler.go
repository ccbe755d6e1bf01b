package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pogolab/stackctl/pkg/database"
	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

// requiredPrivileges is the global privilege set a service login needs
// before it counts as Full. GRANT ALL expands to a superset of these in
// information_schema.USER_PRIVILEGES.
var requiredPrivileges = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE",
	"CREATE", "DROP", "ALTER", "INDEX",
}

// UserSpec declares one required login and the password to create it
// with when missing
type UserSpec struct {
	Name     string
	Password string
}

// DatabaseStatus is the observed state of one required database
type DatabaseStatus struct {
	Name  string
	State types.DatabaseState
}

// UserStatus is the observed state of one required login
type UserStatus struct {
	Name  string
	State types.UserState
}

// Plan is a read-only diff of declared desired state against the live
// server. Building a plan mutates nothing.
type Plan struct {
	Databases []DatabaseStatus
	Users     []UserStatus
}

// Converged reports whether every item is already in terminal state
func (p *Plan) Converged() bool {
	for _, d := range p.Databases {
		if d.State != types.DatabasePresent {
			return false
		}
	}
	for _, u := range p.Users {
		if u.State != types.UserFull {
			return false
		}
	}
	return true
}

// MissingDatabases returns the databases that need creating
func (p *Plan) MissingDatabases() []string {
	var out []string
	for _, d := range p.Databases {
		if d.State == types.DatabaseMissing {
			out = append(out, d.Name)
		}
	}
	return out
}

// Reconciler diffs the declared databases and users against live
// MariaDB state and applies idempotent corrections. It only ever
// creates and escalates; nothing is dropped or downgraded.
type Reconciler struct {
	client    *database.Client
	databases []string
	users     []UserSpec
}

// New creates a reconciler for the declared desired state
func New(client *database.Client, databases []string, users []UserSpec) *Reconciler {
	return &Reconciler{
		client:    client,
		databases: databases,
		users:     users,
	}
}

// Plan observes live state and returns the diff. Read-only; safe to run
// any time. A connection failure aborts the plan.
func (r *Reconciler) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{}

	for _, name := range r.databases {
		n, err := r.client.SelectInt(ctx,
			"SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", name)
		if err != nil {
			return nil, fmt.Errorf("failed to check database %s: %w", name, err)
		}
		state := types.DatabaseMissing
		if n > 0 {
			state = types.DatabasePresent
		}
		plan.Databases = append(plan.Databases, DatabaseStatus{Name: name, State: state})
	}

	for _, user := range r.users {
		state, err := r.userState(ctx, user.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check user %s: %w", user.Name, err)
		}
		plan.Users = append(plan.Users, UserStatus{Name: user.Name, State: state})
	}

	return plan, nil
}

// userState combines the two independent checks (exists, has full
// privileges) into the tri-state
func (r *Reconciler) userState(ctx context.Context, name string) (types.UserState, error) {
	n, err := r.client.SelectInt(ctx,
		"SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = '%'", name)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return types.UserMissing, nil
	}

	grantee := fmt.Sprintf("'%s'@'%%'", name)
	privs, err := r.client.SelectStrings(ctx,
		"SELECT PRIVILEGE_TYPE FROM information_schema.USER_PRIVILEGES WHERE GRANTEE = ?", grantee)
	if err != nil {
		return "", err
	}

	have := make(map[string]bool, len(privs))
	for _, p := range privs {
		have[p] = true
	}
	for _, p := range requiredPrivileges {
		if !have[p] {
			return types.UserLimited, nil
		}
	}
	return types.UserFull, nil
}

// Apply drives every item in the plan to terminal state and records a
// per-item outcome. Individual create/grant failures are reported and
// do not halt the remaining items; only a connection loss aborts the
// run. Apply is idempotent: re-running against a converged server
// produces no changes and no errors.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan) (*types.RunRecord, error) {
	run := &types.RunRecord{
		ID:        uuid.NewString(),
		Kind:      "reconcile",
		StartedAt: time.Now(),
	}
	logger := log.WithRunID(run.ID)

	passwords := make(map[string]string, len(r.users))
	for _, u := range r.users {
		passwords[u.Name] = u.Password
	}

	record := func(outcome types.Outcome, err error) error {
		if err != nil {
			outcome.Error = err.Error()
		}
		run.Outcomes = append(run.Outcomes, outcome)
		if err != nil {
			logger.Error().
				Str("item", outcome.Item).
				Str("action", outcome.Action).
				Err(err).
				Msg("reconcile step failed")
			if database.IsConnection(err) {
				return fmt.Errorf("connection lost during %s of %s: %w", outcome.Action, outcome.Item, err)
			}
			return nil
		}
		logger.Info().
			Str("item", outcome.Item).
			Str("action", outcome.Action).
			Msg("reconcile step applied")
		return nil
	}

	for _, d := range plan.Databases {
		if d.State == types.DatabasePresent {
			continue
		}
		outcome, err := r.createDatabase(ctx, d.Name)
		if abort := record(outcome, err); abort != nil {
			run.FinishedAt = time.Now()
			return run, abort
		}
	}

	for _, u := range plan.Users {
		if u.State == types.UserFull {
			continue
		}

		if u.State == types.UserMissing {
			outcome, err := r.createUser(ctx, u.Name, passwords[u.Name])
			if abort := record(outcome, err); abort != nil {
				run.FinishedAt = time.Now()
				return run, abort
			}
			if err != nil {
				// Creation failed; granting to a missing user
				// would fail with a misleading error.
				continue
			}
		}

		outcome, err := r.grantAll(ctx, u.Name)
		if abort := record(outcome, err); abort != nil {
			run.FinishedAt = time.Now()
			return run, abort
		}
	}

	run.FinishedAt = time.Now()
	return run, nil
}

func (r *Reconciler) createDatabase(ctx context.Context, name string) (types.Outcome, error) {
	outcome := types.Outcome{Item: name, Action: "create-database"}

	quoted, err := database.QuoteIdentifier(name)
	if err != nil {
		return outcome, err
	}
	logger := log.WithDatabase(name)
	logger.Debug().Msg("creating database")
	if _, err := r.client.Exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoted); err != nil {
		return outcome, err
	}
	outcome.OK = true
	return outcome, nil
}

func (r *Reconciler) createUser(ctx context.Context, name, password string) (types.Outcome, error) {
	outcome := types.Outcome{Item: name, Action: "create-user"}

	if password == "" {
		return outcome, fmt.Errorf("no canonical password for user %s", name)
	}
	account, err := database.QuoteUser(name)
	if err != nil {
		return outcome, err
	}
	if _, err := r.client.Exec(ctx, "CREATE USER IF NOT EXISTS "+account+" IDENTIFIED BY ?", password); err != nil {
		return outcome, err
	}
	outcome.OK = true
	return outcome, nil
}

func (r *Reconciler) grantAll(ctx context.Context, name string) (types.Outcome, error) {
	outcome := types.Outcome{Item: name, Action: "grant"}

	account, err := database.QuoteUser(name)
	if err != nil {
		return outcome, err
	}
	if _, err := r.client.Exec(ctx, "GRANT ALL PRIVILEGES ON *.* TO "+account); err != nil {
		return outcome, err
	}
	if _, err := r.client.Exec(ctx, "FLUSH PRIVILEGES"); err != nil {
		return outcome, err
	}
	outcome.OK = true
	return outcome, nil
}
