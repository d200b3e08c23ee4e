package accounts

import (
	"context"
	"strings"
	"time"

	"jobboard/apperr"
	"jobboard/models"
	"jobboard/session"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	companyIDAttempts = 5
)

type Store interface {
	CreateAccount(ctx context.Context, doc models.AccountDocument) error
	GetAccountDocument(ctx context.Context, accountID string) (models.AccountDocument, bool, error)
	FindAccountByEmail(ctx context.Context, email string) (models.AccountDocument, bool, error)
	FindByCompanyID(ctx context.Context, companyID string) (models.Account, bool, error)
	UpdateAccount(ctx context.Context, accountID string, fields map[string]interface{}) (int64, error)
	ListAccounts(ctx context.Context) ([]models.AccountDocument, error)
}

// CompanyCache drops cached employer details after a profile edit.
type CompanyCache interface {
	Invalidate(ctx context.Context, companyID string)
}

type Service struct {
	store      Store
	sessions   *session.Manager
	companies  CompanyCache
	isAdmin    func(email string) bool
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
	newID      func(prefix string) string
}

type Option func(*Service)

// WithAdminEmails restricts admin sign-up to emails accepted by allowed.
func WithAdminEmails(allowed func(email string) bool) Option {
	return func(s *Service) { s.isAdmin = allowed }
}

func WithCompanyCache(c CompanyCache) Option {
	return func(s *Service) { s.companies = c }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func NewService(store Store, sessions *session.Manager, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		sessions:   sessions,
		isAdmin:    func(string) bool { return false },
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		newID:      newID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticated is the result of every sign-in path.
type Authenticated struct {
	Token   string
	Session *session.Session
	Account models.Account
	IsNew   bool
}

type SignUpInput struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`

	FullName   string `json:"full_name"`
	University string `json:"university"`
	Graduation string `json:"graduation"`

	CompanyName  string `json:"company_name"`
	Industry     string `json:"industry"`
	Description  string `json:"description"`
	Headquarters string `json:"headquarters"`
	Website      string `json:"website"`

	OrganizationName        string `json:"organization_name"`
	OrganizationDescription string `json:"organization_description"`
}

func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Authenticated, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return Authenticated{}, apperr.InvalidInput("Email is required", nil)
	}
	if len(in.Password) < minPasswordLength {
		return Authenticated{}, apperr.Auth("Password should be at least 6 characters", nil)
	}
	if !in.Role.Valid() {
		return Authenticated{}, apperr.InvalidInput("Unknown role", nil)
	}
	if in.Role == models.RoleAdmin && !s.isAdmin(email) {
		return Authenticated{}, apperr.Forbidden("Admin sign-up is restricted", nil)
	}

	_, exists, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		return Authenticated{}, apperr.Internal("Database error", err)
	}
	if exists {
		return Authenticated{}, apperr.Auth("Email already in use", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Authenticated{}, apperr.Internal("Failed to hash password", err)
	}

	profile := profileFor(in, s.newID)
	if emp, ok := profile.(models.EmployerProfile); ok {
		if emp.CompanyID, err = s.freeCompanyID(ctx); err != nil {
			return Authenticated{}, err
		}
		profile = emp
	}

	acc, err := models.NewAccount(primitive.NewObjectID().Hex(), email, in.Role, profile)
	if err != nil {
		return Authenticated{}, apperr.InvalidInput(err.Error(), err)
	}
	acc.CreatedAt = s.now().UTC()

	doc := models.NewAccountDocument(acc)
	hash := string(hashed)
	doc.PasswordHash = &hash

	if err := s.create(ctx, doc); err != nil {
		return Authenticated{}, err
	}
	s.logger.Info("account created", zap.String("account_id", acc.AccountID), zap.String("role", string(acc.Role)))
	return s.issue(acc, true)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Authenticated, error) {
	doc, ok, err := s.store.FindAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return Authenticated{}, apperr.Internal("Database error", err)
	}
	if !ok || doc.PasswordHash == nil {
		return Authenticated{}, apperr.Auth("Invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*doc.PasswordHash), []byte(password)); err != nil {
		return Authenticated{}, apperr.Auth("Invalid email or password", nil)
	}

	acc, err := doc.Account()
	if err != nil {
		return Authenticated{}, apperr.Internal("Corrupt account record", err)
	}
	return s.issue(acc, false)
}

// GoogleSignIn signs in the account holding the Google email. Unknown emails
// get a new student account.
func (s *Service) GoogleSignIn(ctx context.Context, gu GoogleUser) (Authenticated, error) {
	email := normalizeEmail(gu.Email)
	if email == "" {
		return Authenticated{}, apperr.InvalidInput("Email not provided by Google", nil)
	}

	doc, ok, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		return Authenticated{}, apperr.Internal("Database error", err)
	}

	if ok {
		if doc.GoogleID == nil && gu.ID != "" {
			fields := map[string]interface{}{"google_id": gu.ID}
			if _, err := s.store.UpdateAccount(ctx, doc.ID, fields); err != nil {
				s.logger.Warn("failed to link google id", zap.String("account_id", doc.ID), zap.Error(err))
			}
		}
		acc, err := doc.Account()
		if err != nil {
			return Authenticated{}, apperr.Internal("Corrupt account record", err)
		}
		return s.issue(acc, false)
	}

	acc, err := models.NewAccount(primitive.NewObjectID().Hex(), email, models.RoleStudent, models.StudentProfile{
		UserID:   s.newID("USR"),
		FullName: gu.Name,
	})
	if err != nil {
		return Authenticated{}, apperr.Internal("Failed to create user account", err)
	}
	acc.AuthProvider = models.AuthProviderGoogle
	acc.CreatedAt = s.now().UTC()

	doc = models.NewAccountDocument(acc)
	if gu.ID != "" {
		id := gu.ID
		doc.GoogleID = &id
	}
	if err := s.create(ctx, doc); err != nil {
		return Authenticated{}, err
	}
	s.logger.Info("account created from google", zap.String("account_id", acc.AccountID))
	return s.issue(acc, true)
}

func (s *Service) SignOut(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return apperr.Auth("Authentication required", nil)
	}
	if err := s.sessions.Revoke(ctx, sess); err != nil {
		return apperr.Internal("Failed to end session", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, sess *session.Session) (models.AccountDocument, error) {
	if sess == nil {
		return models.AccountDocument{}, apperr.Auth("Authentication required", nil)
	}
	doc, ok, err := s.store.GetAccountDocument(ctx, sess.AccountID)
	if err != nil {
		return models.AccountDocument{}, apperr.Internal("Failed to fetch profile", err)
	}
	if !ok {
		return models.AccountDocument{}, apperr.NotFound("Profile not found", nil)
	}
	return doc, nil
}

// CompanyByID returns the public profile of the employer owning companyID.
func (s *Service) CompanyByID(ctx context.Context, companyID string) (models.EmployerProfile, error) {
	acc, ok, err := s.store.FindByCompanyID(ctx, companyID)
	if err != nil {
		return models.EmployerProfile{}, apperr.Internal("Failed to fetch company", err)
	}
	if !ok {
		return models.EmployerProfile{}, apperr.NotFound("Company not found", nil)
	}
	emp, ok := acc.Employer()
	if !ok {
		return models.EmployerProfile{}, apperr.NotFound("Company not found", nil)
	}
	return emp, nil
}

// ListAccounts returns every account for the admin users view. Password
// hashes and Google ids are never serialized.
func (s *Service) ListAccounts(ctx context.Context, sess *session.Session) ([]models.AccountDocument, error) {
	if sess == nil {
		return nil, apperr.Auth("Authentication required", nil)
	}
	if !sess.Is(models.RoleAdmin) {
		return nil, apperr.Forbidden("Admin access required", nil)
	}
	docs, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	return docs, nil
}

// freeCompanyID draws company ids until one is not held by an employer.
func (s *Service) freeCompanyID(ctx context.Context) (string, error) {
	for i := 0; i < companyIDAttempts; i++ {
		id := s.newID("CMP")
		_, taken, err := s.store.FindByCompanyID(ctx, id)
		if err != nil {
			return "", apperr.Internal("Database error", err)
		}
		if !taken {
			return id, nil
		}
		s.logger.Warn("company id collision", zap.String("company_id", id))
	}
	return "", apperr.Internal("Failed to allocate company id", nil)
}

func (s *Service) create(ctx context.Context, doc models.AccountDocument) error {
	if err := s.store.CreateAccount(ctx, doc); err != nil {
		if apperr.Is(err, apperr.KindAuth) || apperr.Is(err, apperr.KindConflict) {
			return err
		}
		return apperr.Internal("Failed to create user", err)
	}
	return nil
}

func (s *Service) issue(acc models.Account, isNew bool) (Authenticated, error) {
	token, sess, err := s.sessions.Issue(acc)
	if err != nil {
		return Authenticated{}, err
	}
	return Authenticated{Token: token, Session: sess, Account: acc, IsNew: isNew}, nil
}

func profileFor(in SignUpInput, newID func(prefix string) string) models.Profile {
	switch in.Role {
	case models.RoleStudent:
		return models.StudentProfile{
			UserID:     newID("USR"),
			FullName:   in.FullName,
			University: in.University,
			Graduation: in.Graduation,
		}
	case models.RoleEmployer:
		// CompanyID is allocated by SignUp.
		return models.EmployerProfile{
			CompanyName:  in.CompanyName,
			Industry:     in.Industry,
			Description:  in.Description,
			Headquarters: in.Headquarters,
			Website:      in.Website,
		}
	case models.RoleSchoolOrganization:
		return models.OrganizationProfile{
			OrganizationID:          newID("ORG"),
			OrganizationName:        in.OrganizationName,
			University:              in.University,
			OrganizationDescription: in.OrganizationDescription,
		}
	case models.RoleAdmin:
		return models.AdminProfile{FullName: in.FullName}
	}
	return nil
}

// newID returns prefix_<6 hex>.
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:6]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
