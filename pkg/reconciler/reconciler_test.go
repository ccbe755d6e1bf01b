package reconciler

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogolab/stackctl/pkg/database"
	"github.com/pogolab/stackctl/pkg/types"
)

var mysqlAccessDenied = mysql.MySQLError{Number: 1044, Message: "Access denied for user"}

const (
	schemataQuery   = "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"
	userCountQuery  = "SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = '%'"
	privilegesQuery = "SELECT PRIVILEGE_TYPE FROM information_schema.USER_PRIVILEGES WHERE GRANTEE = ?"
)

func newMock(t *testing.T) (*database.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewFromDB(db), mock
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func expectDatabaseCheck(mock sqlmock.Sqlmock, name string, present bool) {
	n := 0
	if present {
		n = 1
	}
	mock.ExpectQuery(regexp.QuoteMeta(schemataQuery)).WithArgs(name).WillReturnRows(countRow(n))
}

func expectUserCheck(mock sqlmock.Sqlmock, name string, exists bool, privs ...string) {
	n := 0
	if exists {
		n = 1
	}
	mock.ExpectQuery(regexp.QuoteMeta(userCountQuery)).WithArgs(name).WillReturnRows(countRow(n))
	if !exists {
		return
	}
	rows := sqlmock.NewRows([]string{"PRIVILEGE_TYPE"})
	for _, p := range privs {
		rows.AddRow(p)
	}
	mock.ExpectQuery(regexp.QuoteMeta(privilegesQuery)).
		WithArgs("'" + name + "'@'%'").
		WillReturnRows(rows)
}

func TestPlanDetectsMissingDatabases(t *testing.T) {
	client, mock := newMock(t)

	databases := []string{"dragonite", "golbat", "reactmap", "koji", "poracle"}
	expectDatabaseCheck(mock, "dragonite", true)
	expectDatabaseCheck(mock, "golbat", true)
	expectDatabaseCheck(mock, "reactmap", false)
	expectDatabaseCheck(mock, "koji", false)
	expectDatabaseCheck(mock, "poracle", false)

	r := New(client, databases, nil)
	plan, err := r.Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"reactmap", "koji", "poracle"}, plan.MissingDatabases())
	assert.False(t, plan.Converged())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanUserStates(t *testing.T) {
	client, mock := newMock(t)

	full := []string{
		"SELECT", "INSERT", "UPDATE", "DELETE",
		"CREATE", "DROP", "ALTER", "INDEX", "LOCK TABLES",
	}
	expectUserCheck(mock, "fulluser", true, full...)
	expectUserCheck(mock, "limiteduser", true, "SELECT", "INSERT")
	expectUserCheck(mock, "ghost", false)

	r := New(client, nil, []UserSpec{
		{Name: "fulluser", Password: "pw"},
		{Name: "limiteduser", Password: "pw"},
		{Name: "ghost", Password: "pw"},
	})
	plan, err := r.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, plan.Users, 3)

	assert.Equal(t, types.UserFull, plan.Users[0].State)
	assert.Equal(t, types.UserLimited, plan.Users[1].State)
	assert.Equal(t, types.UserMissing, plan.Users[2].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCreatesOnlyMissing(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{
		Databases: []DatabaseStatus{
			{Name: "dragonite", State: types.DatabasePresent},
			{Name: "reactmap", State: types.DatabaseMissing},
			{Name: "koji", State: types.DatabaseMissing},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `reactmap`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `koji`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := New(client, nil, nil)
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, 0, run.Failed())
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyConvergedIsNoOp(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{
		Databases: []DatabaseStatus{{Name: "golbat", State: types.DatabasePresent}},
		Users:     []UserStatus{{Name: "pogo", State: types.UserFull}},
	}
	require.True(t, plan.Converged())

	r := New(client, []string{"golbat"}, []UserSpec{{Name: "pogo", Password: "pw"}})
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	assert.Empty(t, run.Outcomes)
	// No SQL at all was executed
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMissingUserCreatedAndGranted(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{Users: []UserStatus{{Name: "pogo", State: types.UserMissing}}}

	mock.ExpectExec(regexp.QuoteMeta("CREATE USER IF NOT EXISTS 'pogo'@'%' IDENTIFIED BY ?")).
		WithArgs("sekrit").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("GRANT ALL PRIVILEGES ON *.* TO 'pogo'@'%'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("FLUSH PRIVILEGES")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := New(client, nil, []UserSpec{{Name: "pogo", Password: "sekrit"}})
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "create-user", run.Outcomes[0].Action)
	assert.Equal(t, "grant", run.Outcomes[1].Action)
	assert.Equal(t, 2, run.Succeeded())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyLimitedUserOnlyGranted(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{Users: []UserStatus{{Name: "pogo", State: types.UserLimited}}}

	mock.ExpectExec(regexp.QuoteMeta("GRANT ALL PRIVILEGES ON *.* TO 'pogo'@'%'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("FLUSH PRIVILEGES")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := New(client, nil, []UserSpec{{Name: "pogo", Password: "sekrit"}})
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, "grant", run.Outcomes[0].Action)
	assert.True(t, run.Outcomes[0].OK)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyContinuesPastItemFailure(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{
		Databases: []DatabaseStatus{
			{Name: "reactmap", State: types.DatabaseMissing},
			{Name: "koji", State: types.DatabaseMissing},
		},
	}

	// First create is denied; the second must still run
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `reactmap`")).
		WillReturnError(&mysqlAccessDenied)
	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `koji`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := New(client, nil, nil)
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, 1, run.Succeeded())
	assert.NotEmpty(t, run.Outcomes[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAbortsOnConnectionLoss(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{
		Databases: []DatabaseStatus{
			{Name: "reactmap", State: types.DatabaseMissing},
			{Name: "koji", State: types.DatabaseMissing},
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("CREATE DATABASE IF NOT EXISTS `reactmap`")).
		WillReturnError(context.DeadlineExceeded)

	r := New(client, nil, nil)
	run, err := r.Apply(context.Background(), plan)
	require.Error(t, err)

	// The run stops after the first item; koji is never attempted
	require.Len(t, run.Outcomes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplySkipsGrantWhenCreateFails(t *testing.T) {
	client, mock := newMock(t)

	plan := &Plan{Users: []UserStatus{{Name: "pogo", State: types.UserMissing}}}

	mock.ExpectExec(regexp.QuoteMeta("CREATE USER IF NOT EXISTS 'pogo'@'%' IDENTIFIED BY ?")).
		WithArgs("pw").
		WillReturnError(&mysqlAccessDenied)

	r := New(client, nil, []UserSpec{{Name: "pogo", Password: "pw"}})
	run, err := r.Apply(context.Background(), plan)
	require.NoError(t, err)

	// No grant was attempted for the user that failed to create
	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, "create-user", run.Outcomes[0].Action)
	assert.False(t, run.Outcomes[0].OK)
	assert.NoError(t, mock.ExpectationsWereMet())
}
