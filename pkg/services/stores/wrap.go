package stores

import (
	"context"
	"sync"
	"time"

	"github.com/cupogo/andvari/database/embeds"
	"github.com/cupogo/andvari/models/comm"
	"github.com/cupogo/andvari/stores/pgx"

	"github.com/liut/tutoria/data/schemas"
	"github.com/liut/tutoria/pkg/settings"
)

type ormDB = pgx.IDB //nolint
type ormQuery = pgx.SelectQuery
type pgTx = pgx.Tx //nolint

type Model = pgx.Model
type PageSpec = comm.PageSpec
type ModelSpec = pgx.ModelSpec

// vars
// nolint
var (
	ErrNoRows   = pgx.ErrNoRows
	ErrNotFound = pgx.ErrNotFound
	ErrEmptyKey = pgx.ErrEmptyKey

	dbGet         = pgx.Get
	queryList     = pgx.QueryList
	queryPager    = pgx.QueryPager
	dbGetWithPKID = pgx.ModelWithPKID
	dbInsert      = pgx.DoInsert
	dbUpdate      = pgx.DoUpdate
	dbMetaUp      = pgx.DoMetaUp

	siftEqual = pgx.SiftEqual
	siftMatch = pgx.SiftMatch

	RegisterModel = pgx.RegisterModel
)

func init() {
	pgx.RegisterDbFs(embeds.DBFS(), schemas.SchemaFS())
	pgx.RegisterMigrationFs(schemas.UpgradesFS())
}

// vars ...
var (
	_ Storage = (*Wrap)(nil)

	dbOnce sync.Once
	dbX    *pgx.DB

	stoOnce sync.Once
	stoW    *Wrap
)

// Storage 仓库的门面
type Storage interface {
	Audit() AuditStore
	Kb() KbStore
	Close()
}

// Wrap implements Storages
type Wrap struct {
	db *pgx.DB

	auditStore *auditStore
	kbStore    *kbStore
}

// NewWithDB return new instance of Wrap
func NewWithDB(db *pgx.DB) *Wrap {
	w := &Wrap{
		db: db,
	}

	w.auditStore = &auditStore{w: w}
	w.kbStore = &kbStore{w: w}

	return w
}

// SgtDB start and return a singleton instance of DB
// **Attention**: args only used with fist call
func SgtDB(args ...string) *pgx.DB {
	dbOnce.Do(func() {
		dsn := settings.Current.PgStoreDSN
		tscfg := settings.Current.PgTSConfig
		if len(args) > 0 && len(args[0]) > 0 {
			dsn = args[0]
			if len(args) > 1 {
				tscfg = args[1]
			}
		}
		var err error
		dbX, err = pgx.Open(dsn, tscfg, settings.Current.PgQueryDebug)
		if err != nil {
			logger().Panicw("connect to database fail", "err", err)
		}
	})
	return dbX
}

// Sgt start and return a singleton instance of Storage
func Sgt() *Wrap {
	stoOnce.Do(func() {
		stoW = NewWithDB(SgtDB())
	})
	return stoW
}

func (w *Wrap) Close() {
	_ = w.db.Close()
}

func InitDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	db := SgtDB()
	if err := db.InitSchemas(ctx, false); err != nil {
		logger().Errorw("InitSchemas fail", "err", err)
		return err
	}

	if err := db.RunMigrations(ctx); err != nil {
		logger().Errorw("RunMigrations fail", "err", err)
		return err
	}

	return nil
}

func (w *Wrap) Audit() AuditStore { return w.auditStore }
func (w *Wrap) Kb() KbStore       { return w.kbStore }
