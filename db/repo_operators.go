package db

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"Gin_postgres_redis_inventory/apperr"
	"Gin_postgres_redis_inventory/logs"
	"Gin_postgres_redis_inventory/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or
// a wrong password alike.
var ErrInvalidCredentials = errors.New("usuário ou senha inválidos")

type CreateOperatorInput struct {
	Username string      `json:"username" validate:"required,min=3,max=100"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required,oneof=Gestor Técnico 'Jovem Aprendiz'"`
}

func hashPassword(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (r *Repo) CreateOperator(ctx context.Context, in CreateOperatorInput) (*models.Operator, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := apperr.Struct(in); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Operator{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return nil, storageErr(err)
	}
	if n > 0 {
		return nil, apperr.Duplicate("Já existe um operador com o usuário %s.", in.Username)
	}
	op := &models.Operator{Username: in.Username, PasswordHash: hash, Role: in.Role}
	err = r.DB.WithContext(ctx).Create(op).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Duplicate("Já existe um operador com o usuário %s.", in.Username)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return op, nil
}

// Authenticate checks username and password.
func (r *Repo) Authenticate(ctx context.Context, username, password string) (*models.Operator, error) {
	op, err := r.FindOperatorByUsername(ctx, strings.TrimSpace(username))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

func (r *Repo) SetOperatorPassword(ctx context.Context, id uint, password string) error {
	if len(password) < 6 || len(password) > 72 {
		return apperr.Validation("A senha deve ter entre 6 e 72 caracteres.")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return apperr.Internal(err)
	}
	res := r.DB.WithContext(ctx).Model(&models.Operator{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Operador não encontrado.")
	}
	return nil
}

func (r *Repo) TouchOperatorLogin(ctx context.Context, id uint, ip string) error {
	now := r.utcNow()
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
		}).Error
}

func (r *Repo) TouchOperatorSeen(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Update("last_seen_at", r.utcNow()).Error
}

func (r *Repo) FindOperatorByID(ctx context.Context, id uint) (*models.Operator, error) {
	var op models.Operator
	err := r.DB.WithContext(ctx).First(&op, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Operador não encontrado.")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &op, nil
}

func (r *Repo) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Operador não encontrado.")
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return &op, nil
}

type ListOperatorsResult struct {
	Operators []models.Operator `json:"operators"`
	Total     int64             `json:"total"`
}

func (r *Repo) ListOperators(ctx context.Context, q string, page, size int) (ListOperatorsResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Operator{})
	if q = strings.TrimSpace(q); q != "" {
		tx = tx.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListOperatorsResult{}, storageErr(err)
	}
	var ops []models.Operator
	if err := tx.
		Order("username ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&ops).Error; err != nil {
		return ListOperatorsResult{}, storageErr(err)
	}
	return ListOperatorsResult{Operators: ops, Total: total}, nil
}

func (r *Repo) CountGestores(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.Operator{}).
		Where("role = ?", models.RoleGestor).
		Count(&n).Error
	return n, storageErr(err)
}

// DeleteOperator removes an operator. History keeps the username, so
// nothing else needs to go.
func (r *Repo) DeleteOperator(ctx context.Context, id, actingID uint) error {
	if id == actingID {
		return apperr.State("Você não pode remover o próprio usuário.")
	}
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var op models.Operator
		err := forUpdate(tx).First(&op, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Operador não encontrado.")
		}
		if err != nil {
			return err
		}
		if op.Role == models.RoleGestor {
			var n int64
			if err := tx.Model(&models.Operator{}).Where("role = ?", models.RoleGestor).Count(&n).Error; err != nil {
				return err
			}
			if n <= 1 {
				return apperr.State("Não é possível remover o último gestor.")
			}
		}
		return tx.Delete(&models.Operator{}, op.ID).Error
	})
}

// EnsureDefaultOperator creates the first Gestor when there is no operator
// at all. With an empty password a random one is generated and logged once.
func (r *Repo) EnsureDefaultOperator(ctx context.Context, username, password string) (*models.Operator, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Operator{}).Count(&n).Error; err != nil {
		return nil, storageErr(err)
	}
	if n > 0 {
		return nil, nil
	}
	generated := password == ""
	if generated {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return nil, apperr.Internal(err)
		}
		password = hex.EncodeToString(buf)
	}
	op, err := r.CreateOperator(ctx, CreateOperatorInput{Username: username, Password: password, Role: models.RoleGestor})
	if err != nil {
		return nil, err
	}
	entry := logs.Logger.WithField("username", username)
	if generated {
		entry = entry.WithField("password", password)
	}
	entry.Warn("no operator found, created the default gestor")
	return op, nil
}
