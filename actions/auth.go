package actions

import (
	"context"
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-taskdesk"
	"github.com/goliatone/go-taskdesk/repository"
	"github.com/nyaruka/phonenumbers"
)

// Messages shown to users by the auth actions
const (
	MsgEmailTaken      = "Cet email est déjà utilisé"
	MsgUnknownUser     = "Utilisateur n'existe pas"
	MsgWrongPassword   = "Mot de passe incorrect"
	MsgSignupFailed    = "Une erreur est survenue lors de l'inscription"
	MsgLoginFailed     = "Une erreur est survenue lors de la connexion"
	MsgFullNameMissing = "Le nom complet est requis"
	MsgEmailInvalid    = "Format d'email invalide"
	MsgCompanyMissing  = "Le nom de l'entreprise est requis"
	MsgPasswordShort   = "Le mot de passe doit contenir au moins 8 caractères"
	MsgPasswordMissing = "Le mot de passe est requis"
	MsgPasswordsDiffer = "Les mots de passe ne correspondent pas"
	MsgPhoneInvalid    = "Numéro de téléphone invalide"
)

// SignupPayload is the signup form
type SignupPayload struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	CompanyName     string `json:"companyName"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignupPayloadFromForm reads the signup form fields
func SignupPayloadFromForm(form url.Values) SignupPayload {
	return SignupPayload{
		FullName:        strings.TrimSpace(form.Get("fullName")),
		Email:           strings.TrimSpace(form.Get("email")),
		CompanyName:     strings.TrimSpace(form.Get("companyName")),
		Phone:           strings.TrimSpace(form.Get("phone")),
		Password:        form.Get("password"),
		ConfirmPassword: form.Get("confirmPassword"),
	}
}

// Validate will validate the payload
func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required.Error(MsgFullNameMissing), validation.RuneLength(1, 200)),
		validation.Field(&p.Email, validation.Required.Error(MsgEmailInvalid), is.Email.Error(MsgEmailInvalid)),
		validation.Field(&p.CompanyName, validation.Required.Error(MsgCompanyMissing), validation.RuneLength(1, 200)),
		validation.Field(&p.Password,
			validation.Required.Error(MsgPasswordShort),
			validation.RuneLength(8, 0).Error(MsgPasswordShort),
		),
		validation.Field(&p.ConfirmPassword, validation.By(stringEquals(p.Password, MsgPasswordsDiffer))),
	)
}

// LoginPayload is the login form
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayloadFromForm reads the login form fields
func LoginPayloadFromForm(form url.Values) LoginPayload {
	return LoginPayload{
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
	}
}

// Validate will validate the payload
func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required.Error(MsgEmailInvalid), is.Email.Error(MsgEmailInvalid)),
		validation.Field(&p.Password, validation.Required.Error(MsgPasswordMissing)),
	)
}

// Signup creates the user with their organization
func (h *Handlers) Signup(ctx context.Context, in taskdesk.ActionInput) (*taskdesk.ActionOutput, error) {
	payload := SignupPayloadFromForm(in.Form)
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	phone, err := h.normalizePhone(payload.Phone)
	if err != nil {
		return nil, validation.Errors{"phone": err}
	}

	hash, err := h.hashPassword(payload.Password)
	if err != nil {
		h.logger.Error("signup hash password", "error", err)
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgSignupFailed)
	}

	user, org, err := h.store.CreateUser(ctx, repository.NewUser{
		Email:        payload.Email,
		PasswordHash: hash,
		FullName:     payload.FullName,
		Phone:        phone,
		CompanyName:  payload.CompanyName,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, taskdesk.NewActionError(taskdesk.CodeBadRequest, MsgEmailTaken).
				WithField("email", MsgEmailTaken)
		}
		h.logger.Error("signup create user", "error", err)
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgSignupFailed)
	}

	h.logger.Info("user signed up", "user_id", user.ID, "org_id", org.ID)

	return &taskdesk.ActionOutput{
		User: claimsFor(user, &org.ID),
		Data: map[string]any{"user": user, "organization": org},
	}, nil
}

// Login checks the credentials of a registered user
func (h *Handlers) Login(ctx context.Context, in taskdesk.ActionInput) (*taskdesk.ActionOutput, error) {
	payload := LoginPayloadFromForm(in.Form)
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	user, err := h.store.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			taskdesk.VerifyPassword(h.unknownUserHash(), payload.Password)
			return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgUnknownUser)
		}
		h.logger.Error("login find user", "error", err)
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgLoginFailed)
	}

	if !taskdesk.VerifyPassword(user.PasswordHash, payload.Password) {
		return nil, taskdesk.NewActionError(taskdesk.CodeUnauthorized, MsgWrongPassword)
	}

	var orgID *int64
	switch id, err := h.store.OrgIDForUser(ctx, user.ID); {
	case err == nil:
		orgID = &id
	case errors.Is(err, repository.ErrNotFound):
	default:
		h.logger.Warn("login organization lookup", "user_id", user.ID, "error", err)
	}

	return &taskdesk.ActionOutput{
		User: claimsFor(user, orgID),
		Data: map[string]any{"user": user},
	}, nil
}

// Logout has nothing to persist: credentials are cookies and the gate
// clears them.
func (h *Handlers) Logout(_ context.Context, in taskdesk.ActionInput) (*taskdesk.ActionOutput, error) {
	if in.User != nil {
		h.logger.Debug("user logged out", "user_id", in.User.UserID)
	}
	return &taskdesk.ActionOutput{}, nil
}

func (h *Handlers) normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, h.phoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", errors.New(MsgPhoneInvalid)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func claimsFor(user *repository.User, orgID *int64) *taskdesk.UserClaims {
	return &taskdesk.UserClaims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		OrgID:    orgID,
	}
}

func stringEquals(str, message string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(message)
		}
		return nil
	}
}
