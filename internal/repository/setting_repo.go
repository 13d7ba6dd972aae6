package repository

import (
	"sort"

	"coinmeet/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository stores the admin-tunable platform values as key/value
// rows.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// "key" is reserved in MySQL; clause columns get dialect quoting.
var keyColumn = clause.Column{Name: "key"}

func (r *SettingRepository) Value(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where(clause.Eq{Column: keyColumn, Value: key}).Take(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

// Values returns every stored setting keyed by name.
func (r *SettingRepository) Values() (map[string]string, error) {
	var rows []models.SystemSetting
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Upsert writes value and records which admin changed it.
func (r *SettingRepository) Upsert(key, value string, updatedBy *uint) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{keyColumn},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value, UpdatedBy: updatedBy}).Error
}

// InsertMissing adds defaults for keys that have no row yet and leaves
// existing values alone. It returns the number of rows inserted.
func (r *SettingRepository) InsertMissing(defaults map[string]string) (int64, error) {
	if len(defaults) == 0 {
		return 0, nil
	}
	rows := make([]models.SystemSetting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, models.SystemSetting{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	res := r.db.Clauses(clause.OnConflict{Columns: []clause.Column{keyColumn}, DoNothing: true}).Create(&rows)
	return res.RowsAffected, res.Error
}
