package model

import "time"

// Meta is the audit and lifecycle record embedded in every top-level
// entity: timestamps, acting principals, an optimistic version counter,
// the soft-delete marker, and the failed-login lock state used by User.
//
// Invariant: IsDeleted == true implies IsActive == false. Restore
// inverts both.
type Meta struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`

	// Incremented on every persisted mutation. Recorded for optimistic
	// concurrency; writes are last-write-wins unless a caller compares it.
	Version int64 `json:"version" bson:"version"`

	IsDeleted bool       `json:"is_deleted" bson:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty" bson:"deleted_by,omitempty"`
	IsActive  bool       `json:"is_active" bson:"is_active"`

	LoginAttempts int        `json:"-" bson:"login_attempts,omitempty"`
	LockUntil     *time.Time `json:"-" bson:"lock_until,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty" bson:"last_login,omitempty"`
}

func NewMeta(actorID string) Meta {
	now := time.Now().UTC()
	return Meta{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actorID,
		UpdatedBy: actorID,
		Version:   1,
		IsActive:  true,
	}
}

// Touch refreshes the audit fields before a persisted mutation.
func (m *Meta) Touch(actorID string) {
	m.UpdatedAt = time.Now().UTC()
	if actorID != "" {
		m.UpdatedBy = actorID
	}
	m.Version++
}

// SoftDelete marks the entity deleted. Callers must reject the call when
// the entity is already deleted before reaching this method.
func (m *Meta) SoftDelete(actorID string) {
	now := time.Now().UTC()
	m.IsDeleted = true
	m.DeletedAt = &now
	m.DeletedBy = actorID
	m.IsActive = false
}

// Restore clears the soft-delete marker. Callers must verify the entity
// is currently deleted first.
func (m *Meta) Restore() {
	m.IsDeleted = false
	m.DeletedAt = nil
	m.DeletedBy = ""
	m.IsActive = true
}

func (m *Meta) IsLocked(now time.Time) bool {
	return m.LockUntil != nil && m.LockUntil.After(now)
}

// RegisterFailedLogin applies the account-lock policy. An expired lock
// resets the counter to 1 instead of continuing to increment; reaching
// maxAttempts on an unlocked account starts a new lock window.
func (m *Meta) RegisterFailedLogin(now time.Time, maxAttempts int, lockWindow time.Duration) {
	if m.LockUntil != nil && !m.LockUntil.After(now) {
		m.LoginAttempts = 1
		m.LockUntil = nil
		return
	}

	m.LoginAttempts++
	if m.LoginAttempts >= maxAttempts && !m.IsLocked(now) {
		until := now.Add(lockWindow)
		m.LockUntil = &until
	}
}

// RegisterLogin clears the failed-attempt state after a successful login.
func (m *Meta) RegisterLogin(now time.Time) {
	m.LoginAttempts = 0
	m.LockUntil = nil
	m.LastLogin = &now
}
