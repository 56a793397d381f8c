package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/liorwd/calbot/internal/config"
)

// Store wraps SQLite for relational data and Badger for the reminder
// queue and short-lived session state.
type Store struct {
	db     *gorm.DB
	badger *badger.DB
}

// New creates a store rooted at cfg.Storage paths.
func New(cfg *config.Config) (*Store, error) {
	sqliteDB, err := sql.Open("sqlite", cfg.Storage.SQLitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &MessageHistory{}, &ScheduledReminder{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	badgerOpts := badger.DefaultOptions(cfg.Storage.BadgerPath).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true).
		WithValueLogFileSize(16 << 20).
		WithMemTableSize(16 << 20)

	bdb, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{db: db, badger: bdb}, nil
}

// Close releases both databases.
func (s *Store) Close() error {
	if err := s.badger.Close(); err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying gorm handle for tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ============================================================================
// Users
// ============================================================================

// GetOrCreateUser looks up a user by phone number, creating one on first
// contact.
func (s *Store) GetOrCreateUser(phone string) (*User, error) {
	var user User
	err := s.db.Where("phone_number = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	user = User{PhoneNumber: phone}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(id string) (*User, error) {
	var user User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUser persists all fields of the user row.
func (s *Store) SaveUser(user *User) error {
	return s.db.Save(user).Error
}

// UsersWithCalendar returns every user holding Google credentials.
func (s *Store) UsersWithCalendar() ([]User, error) {
	var users []User
	err := s.db.Where("google_credentials != ''").Find(&users).Error
	return users, err
}

// ListUsers returns users ordered by signup, newest first.
func (s *Store) ListUsers(limit, offset int) ([]User, error) {
	var users []User
	err := s.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, err
}

// Stats summarizes bot activity for the admin API.
type Stats struct {
	Users         int64 `json:"users"`
	Connected     int64 `json:"connected"`
	Messages      int64 `json:"messages"`
	RemindersSent int64 `json:"reminders_sent"`
}

// GetStats counts users, connected users, messages, and delivered reminders.
func (s *Store) GetStats() (*Stats, error) {
	var st Stats
	if err := s.db.Model(&User{}).Count(&st.Users).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&User{}).Where("google_credentials != ''").Count(&st.Connected).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&MessageHistory{}).Count(&st.Messages).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&ScheduledReminder{}).Where("sent = ?", true).Count(&st.RemindersSent).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// ============================================================================
// Message history
// ============================================================================

// SaveMessage appends one message to the history.
func (s *Store) SaveMessage(userID, direction, body string) error {
	msg := MessageHistory{UserID: userID, Direction: direction, Body: body}
	return s.db.Create(&msg).Error
}

// RecentMessages returns the latest n messages for a user, newest first.
func (s *Store) RecentMessages(userID string, n int) ([]MessageHistory, error) {
	var msgs []MessageHistory
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(n).
		Find(&msgs).Error
	return msgs, err
}

// ============================================================================
// Reminders
// ============================================================================

// CreateReminder inserts a reminder unless one already exists for the same
// user, event, and lead time.
func (s *Store) CreateReminder(r *ScheduledReminder) error {
	return s.db.Where(ScheduledReminder{
		UserID:        r.UserID,
		EventID:       r.EventID,
		MinutesBefore: r.MinutesBefore,
	}).FirstOrCreate(r).Error
}

// DueReminders returns unsent reminders whose remind time falls inside the
// window ending at now. Reminders older than an hour are skipped so a long
// outage does not flood users with stale pings.
func (s *Store) DueReminders(now time.Time) ([]ScheduledReminder, error) {
	var due []ScheduledReminder
	err := s.db.Where("sent = ? AND remind_at <= ? AND remind_at > ?",
		false, now, now.Add(-time.Hour)).
		Order("remind_at ASC").
		Find(&due).Error
	return due, err
}

// MarkReminderSent flips the sent flag.
func (s *Store) MarkReminderSent(id string) error {
	return s.db.Model(&ScheduledReminder{}).Where("id = ?", id).
		Update("sent", true).Error
}

// PruneReminders deletes sent reminders older than the cutoff.
func (s *Store) PruneReminders(before time.Time) error {
	return s.db.Where("sent = ? AND remind_at < ?", true, before).
		Delete(&ScheduledReminder{}).Error
}

// ============================================================================
// Queue (Badger)
// ============================================================================

// Enqueue appends a job payload to the named queue.
func (s *Store) Enqueue(queue string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("queue:%s:%d", queue, time.Now().UnixNano())
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Dequeue pops the oldest entry from the named queue into out. It returns
// false when the queue is empty.
func (s *Store) Dequeue(queue string, out any) (bool, error) {
	prefix := []byte(fmt.Sprintf("queue:%s:", queue))
	var found bool
	err := s.badger.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		it.Rewind()
		if !it.Valid() {
			return nil
		}
		item := it.Item()
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		}); err != nil {
			return err
		}
		key := item.KeyCopy(nil)
		if err := txn.Delete(key); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// ============================================================================
// Sessions and KV (Badger)
// ============================================================================

// SetSession stores a short-lived value, used for OAuth state tokens.
func (s *Store) SetSession(key, value string, ttl time.Duration) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte("session:"+key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// GetSession reads and deletes a session value. Missing or expired keys
// return an empty string.
func (s *Store) GetSession(key string) (string, error) {
	var value string
	err := s.badger.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("session:" + key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			value = string(val)
			return nil
		}); err != nil {
			return err
		}
		return txn.Delete([]byte("session:" + key))
	})
	return value, err
}

// SetKV stores an arbitrary value under the kv prefix.
func (s *Store) SetKV(key string, value []byte) error {
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV reads a value set with SetKV. Missing keys return nil.
func (s *Store) GetKV(key string) ([]byte, error) {
	var value []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}
