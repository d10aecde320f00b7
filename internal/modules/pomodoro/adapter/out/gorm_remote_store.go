package out

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/goccy/go-json"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"pomo/internal/modules/pomodoro/domain"
	"pomo/internal/platform/clock"
	apperrors "pomo/internal/platform/errors"
	"pomo/internal/platform/id"
)

// rowMetadata stores RecordMetadata in a jsonb column.
type rowMetadata domain.RecordMetadata

func (m rowMetadata) Value() (driver.Value, error) {
	raw, err := json.Marshal(domain.RecordMetadata(m))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (m *rowMetadata) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = rowMetadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", value)
	}
	meta := domain.RecordMetadata{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	*m = rowMetadata(meta)
	return nil
}

type pomodoroRow struct {
	PomodoroID      string      `gorm:"column:pomodoroId;type:uuid;primaryKey"`
	UserID          *string     `gorm:"column:userId;index:idx_pomodoros_user_created,priority:1"`
	Title           string      `gorm:"column:title;not null"`
	DurationMinutes *int        `gorm:"column:durationMinutes"`
	StartedAt       *time.Time  `gorm:"column:startedAt"`
	EndedAt         *time.Time  `gorm:"column:endedAt"`
	IsComplete      *bool       `gorm:"column:isComplete"`
	Metadata        rowMetadata `gorm:"column:metadata;type:jsonb;not null"`
	CreatedAt       time.Time   `gorm:"column:createdAt;not null;index:idx_pomodoros_user_created,priority:2,sort:desc"`
	UpdatedAt       time.Time   `gorm:"column:updatedAt;not null"`
}

func (r pomodoroRow) record() domain.SessionRecord {
	created, updated := r.CreatedAt, r.UpdatedAt
	out := domain.SessionRecord{
		ID:              r.PomodoroID,
		Title:           r.Title,
		DurationMinutes: r.DurationMinutes,
		StartedAt:       r.StartedAt,
		EndedAt:         r.EndedAt,
		IsComplete:      r.IsComplete,
		Metadata:        domain.RecordMetadata(r.Metadata),
		CreatedAt:       &created,
		UpdatedAt:       &updated,
	}
	if r.UserID != nil {
		out.UserID = *r.UserID
	}
	return out
}

// GormRemoteStore keeps session rows in a hosted Postgres database.
type GormRemoteStore struct {
	db    *gorm.DB
	table string
	clock clock.Clock
	idGen id.Generator
}

func NewGormRemoteStore(dsn, table string, clk clock.Clock, idGen id.Generator) (*GormRemoteStore, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clk.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := &GormRemoteStore{db: db, table: table, clock: clk, idGen: idGen}
	if err := store.migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func (s *GormRemoteStore) migrate() error {
	m := gormigrate.New(s.db, &gormigrate.Options{
		TableName:      "pomo_migrations",
		IDColumnName:   "id",
		IDColumnSize:   255,
		UseTransaction: true,
	}, []*gormigrate.Migration{
		{
			ID: "001_" + s.table,
			Migrate: func(tx *gorm.DB) error {
				return tx.Table(s.table).AutoMigrate(&pomodoroRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(s.table)
			},
		},
	})
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

func (s *GormRemoteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormRemoteStore) Create(ctx context.Context, record domain.SessionRecord) (domain.SessionRecord, error) {
	now := s.clock.Now()
	row := pomodoroRow{
		PomodoroID:      s.idGen.New(),
		Title:           record.Title,
		DurationMinutes: record.DurationMinutes,
		StartedAt:       record.StartedAt,
		EndedAt:         record.EndedAt,
		IsComplete:      record.IsComplete,
		Metadata:        rowMetadata(record.Metadata),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if record.UserID != "" {
		userID := record.UserID
		row.UserID = &userID
	}
	if err := s.db.WithContext(ctx).Table(s.table).Create(&row).Error; err != nil {
		return domain.SessionRecord{}, fmt.Errorf("insert %s row: %w", s.table, err)
	}
	return row.record(), nil
}

func (s *GormRemoteStore) Update(ctx context.Context, rowID string, changes domain.SessionChanges) (domain.SessionRecord, error) {
	values := map[string]any{"updatedAt": s.clock.Now()}
	if changes.EndedAt != nil {
		values["endedAt"] = *changes.EndedAt
	}
	if changes.IsComplete != nil {
		values["isComplete"] = *changes.IsComplete
	}
	if changes.Metadata != nil {
		values["metadata"] = rowMetadata(*changes.Metadata)
	}
	byID := clause.Eq{Column: clause.Column{Name: "pomodoroId"}, Value: rowID}
	res := s.db.WithContext(ctx).Table(s.table).Where(byID).Updates(values)
	if res.Error != nil {
		return domain.SessionRecord{}, fmt.Errorf("update %s row: %w", s.table, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.SessionRecord{}, apperrors.ErrNotFound
	}
	row := pomodoroRow{}
	if err := s.db.WithContext(ctx).Table(s.table).Where(byID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SessionRecord{}, apperrors.ErrNotFound
		}
		return domain.SessionRecord{}, fmt.Errorf("read %s row: %w", s.table, err)
	}
	return row.record(), nil
}

func (s *GormRemoteStore) List(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	rows := []pomodoroRow{}
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where(clause.Eq{Column: clause.Column{Name: "userId"}, Value: userID}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s rows: %w", s.table, err)
	}
	out := make([]domain.SessionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}
