package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func mockedMySQL(t *testing.T) (gorm.Dialector, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true}), mock
}

func TestOpenGormWithDialector(t *testing.T) {
	// gorm pings once on open, then the pool is pinged again after sizing
	cases := []struct {
		name    string
		pings   []error
		wantErr bool
	}{
		{name: "ping ok", pings: []error{nil, nil}},
		{name: "first ping fails", pings: []error{errors.New("connection refused")}, wantErr: true},
		{name: "second ping fails", pings: []error{nil, errors.New("server gone")}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dial, mock := mockedMySQL(t)
			for _, perr := range tc.pings {
				mock.ExpectPing().WillReturnError(perr)
			}

			gdb, err := OpenGormWithDialector(dial)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
			} else {
				if err != nil || gdb == nil {
					t.Fatalf("open: %v", err)
				}
				sqlDB, _ := gdb.DB()
				if got := sqlDB.Stats().MaxOpenConnections; got != maxOpenConns {
					t.Fatalf("max open conns = %d", got)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestOpenSQLite_SingleConnection(t *testing.T) {
	gdb, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open conns = %d, want 1", got)
	}
	var one int
	if err := gdb.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("SELECT 1 = %d, %v", one, err)
	}
}

func TestOpenSQLite_LogsThroughZapWithoutNotFoundNoise(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gdb, err := OpenSQLite(":memory:", WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	type row struct {
		ID   uint64 `gorm:"primaryKey"`
		Name string
	}
	if err := gdb.AutoMigrate(&row{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logs.TakeAll()
	var r row
	if err := gdb.First(&r, 99).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v", err)
	}
	if n := logs.FilterMessage("query failed").Len(); n != 0 {
		t.Fatalf("not-found lookup logged %d errors: %+v", n, logs.All())
	}

	_ = gdb.Exec("SELECT * FROM missing_table").Error
	if logs.FilterMessage("query failed").Len() != 1 {
		t.Fatalf("real errors should be logged: %+v", logs.All())
	}
}
