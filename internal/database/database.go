package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"moul.io/zapgorm2"

	"github.com/anonticket/anonticket/internal/models"
)

type DataBase struct {
	*gorm.DB
}

// DuplicateKey wraps a unique-constraint violation. The web layer regenerates
// the identifier and retries when claiming a phrase races another request.
type DuplicateKey struct {
	nested error
}

func (e *DuplicateKey) Error() string {
	return e.nested.Error()
}

func (e *DuplicateKey) Unwrap() error {
	return e.nested
}

func IsDuplicateKey(err error) bool {
	duplicateKey := &DuplicateKey{}
	return errors.As(err, &duplicateKey)
}

// gorm does not classify driver errors for us:
// https://github.com/go-gorm/gorm/issues/4037
func isUniqueViolation(err error) bool {
	perr, ok := err.(*pgconn.PgError)
	if ok {
		return perr.Code == "23505"
	}
	return false
}

func OpenDataBase(logger *zap.Logger, dsn string) (*DataBase, error) {
	zapLogger := zapgorm2.New(logger.Named("gorm"))
	zapLogger.SetAsDefault()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: zapLogger,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.UserIdentifier{},
		&models.Project{},
		&models.Issue{},
		&models.Note{},
		&models.AccountRequest{},
	)
	if err != nil {
		return nil, err
	}

	return &DataBase{db}, nil
}

// ClaimIdentifier records a generated phrase. Two concurrent claims of the
// same phrase are arbitrated by the unique index; the loser gets DuplicateKey.
func (db *DataBase) ClaimIdentifier(identifier string) error {
	err := db.Create(&models.UserIdentifier{Identifier: identifier}).Error
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateKey{err}
		}
		return err
	}
	return nil
}

func (db *DataBase) IdentifierExists(identifier string) (bool, error) {
	var count int64
	err := db.Model(&models.UserIdentifier{}).Where("identifier = ?", identifier).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureIdentifier claims the phrase unless it is already claimed. Generated
// phrases are reserved up front; this covers valid phrases typed into the
// login form that were never handed out by us.
func (db *DataBase) EnsureIdentifier(identifier string) error {
	var record models.UserIdentifier
	err := db.FirstOrCreate(&record, models.UserIdentifier{Identifier: identifier}).Error
	if err != nil && isUniqueViolation(err) {
		// Someone else claimed it between the read and the write. The phrase
		// exists now, which is all the caller needs.
		return nil
	}
	return err
}

func (db *DataBase) UpsertProject(project *models.Project) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gitlab_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"slug", "name", "description", "web_url"}),
	}).Create(project).Error
}

func (db *DataBase) FindProjectBySlug(slug string) (*models.Project, error) {
	var project models.Project
	err := db.First(&project, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (db *DataBase) FindProjectByID(id uint) (*models.Project, error) {
	var project models.Project
	err := db.First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (db *DataBase) ListProjects() (projects []models.Project, err error) {
	projects = make([]models.Project, 0)
	err = db.Order("name").Find(&projects).Error
	if err != nil {
		projects = nil
	}
	return
}

func (db *DataBase) CreateIssue(issue *models.Issue) error {
	issue.ReviewStatus = models.ReviewStatusPending
	return db.Create(issue).Error
}

func (db *DataBase) FindIssue(id uint) (*models.Issue, error) {
	var issue models.Issue
	err := db.First(&issue, id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (db *DataBase) ListUserIssues(identifier string) (issues []models.Issue, err error) {
	issues = make([]models.Issue, 0)
	err = db.Order("created_at").Find(&issues, "identifier = ?", identifier).Error
	if err != nil {
		issues = nil
	}
	return
}

func (db *DataBase) ListPendingIssues() (issues []models.Issue, err error) {
	issues = make([]models.Issue, 0)
	err = db.Order("created_at").Find(&issues, "review_status = ?", models.ReviewStatusPending).Error
	if err != nil {
		issues = nil
	}
	return
}

// ListPostableIssues returns approved issues the poster has not pushed yet.
func (db *DataBase) ListPostableIssues() (issues []models.Issue, err error) {
	issues = make([]models.Issue, 0)
	err = db.Order("created_at").Find(&issues, "review_status = ? AND gitlab_iid IS NULL", models.ReviewStatusApproved).Error
	if err != nil {
		issues = nil
	}
	return
}

func (db *DataBase) SetIssueReview(id uint, status models.ReviewStatus, note string) error {
	res := db.Model(&models.Issue{}).Where("id = ?", id).Updates(map[string]interface{}{
		"review_status": status,
		"review_note":   note,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown issue %d", id)
	}
	return nil
}

func (db *DataBase) MarkIssuePosted(id uint, gitlabIID int) error {
	now := time.Now()
	res := db.Model(&models.Issue{}).Where("id = ? AND gitlab_iid IS NULL", id).Updates(map[string]interface{}{
		"gitlab_iid": gitlabIID,
		"posted_at":  &now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("issue %d is already posted", id)
	}
	return nil
}

func (db *DataBase) CreateNote(note *models.Note) error {
	note.ReviewStatus = models.ReviewStatusPending
	return db.Create(note).Error
}

func (db *DataBase) FindNote(id uint) (*models.Note, error) {
	var note models.Note
	err := db.First(&note, id).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (db *DataBase) ListUserNotes(identifier string) (notes []models.Note, err error) {
	notes = make([]models.Note, 0)
	err = db.Order("created_at").Find(&notes, "identifier = ?", identifier).Error
	if err != nil {
		notes = nil
	}
	return
}

func (db *DataBase) ListPendingNotes() (notes []models.Note, err error) {
	notes = make([]models.Note, 0)
	err = db.Order("created_at").Find(&notes, "review_status = ?", models.ReviewStatusPending).Error
	if err != nil {
		notes = nil
	}
	return
}

func (db *DataBase) ListPostableNotes() (notes []models.Note, err error) {
	notes = make([]models.Note, 0)
	err = db.Order("created_at").Find(&notes, "review_status = ? AND gitlab_note_id IS NULL", models.ReviewStatusApproved).Error
	if err != nil {
		notes = nil
	}
	return
}

func (db *DataBase) SetNoteReview(id uint, status models.ReviewStatus, note string) error {
	res := db.Model(&models.Note{}).Where("id = ?", id).Updates(map[string]interface{}{
		"review_status": status,
		"review_note":   note,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown note %d", id)
	}
	return nil
}

func (db *DataBase) MarkNotePosted(id uint, gitlabNoteID int) error {
	now := time.Now()
	res := db.Model(&models.Note{}).Where("id = ? AND gitlab_note_id IS NULL", id).Updates(map[string]interface{}{
		"gitlab_note_id": gitlabNoteID,
		"posted_at":      &now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("note %d is already posted", id)
	}
	return nil
}

func (db *DataBase) CreateAccountRequest(request *models.AccountRequest) error {
	request.ReviewStatus = models.ReviewStatusPending
	return db.Create(request).Error
}

func (db *DataBase) FindAccountRequest(id uint) (*models.AccountRequest, error) {
	var request models.AccountRequest
	err := db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (db *DataBase) HasPendingAccountRequest(identifier string) (bool, error) {
	var count int64
	err := db.Model(&models.AccountRequest{}).
		Where("identifier = ? AND review_status = ?", identifier, models.ReviewStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DataBase) ListUserAccountRequests(identifier string) (requests []models.AccountRequest, err error) {
	requests = make([]models.AccountRequest, 0)
	err = db.Order("created_at").Find(&requests, "identifier = ?", identifier).Error
	if err != nil {
		requests = nil
	}
	return
}

func (db *DataBase) ListPendingAccountRequests() (requests []models.AccountRequest, err error) {
	requests = make([]models.AccountRequest, 0)
	err = db.Order("created_at").Find(&requests, "review_status = ?", models.ReviewStatusPending).Error
	if err != nil {
		requests = nil
	}
	return
}

func (db *DataBase) SetAccountRequestReview(id uint, status models.ReviewStatus, note string) error {
	res := db.Model(&models.AccountRequest{}).Where("id = ?", id).Updates(map[string]interface{}{
		"review_status": status,
		"review_note":   note,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("unknown account request %d", id)
	}
	return nil
}

type PendingCounts struct {
	Issues          int64
	Notes           int64
	AccountRequests int64
}

func (db *DataBase) CountPending() (*PendingCounts, error) {
	counts := &PendingCounts{}
	err := db.Model(&models.Issue{}).Where("review_status = ?", models.ReviewStatusPending).Count(&counts.Issues).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.Note{}).Where("review_status = ?", models.ReviewStatusPending).Count(&counts.Notes).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.AccountRequest{}).Where("review_status = ?", models.ReviewStatusPending).Count(&counts.AccountRequests).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
