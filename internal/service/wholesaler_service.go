package service

import (
	"errors"

	"go-pharmacy-ledger/internal/apperr"
	"go-pharmacy-ledger/internal/model"
	"go-pharmacy-ledger/internal/repository"
	"go-pharmacy-ledger/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WholesalerService interface {
	CreateWholesaler(in *CreateWholesalerInput) (*model.Wholesaler, error)
	GetWholesaler(id uuid.UUID) (*model.Wholesaler, error)
	GetAllWholesalers() ([]model.Wholesaler, error)
	UpdateWholesaler(id uuid.UUID, in *UpdateWholesalerInput) (*model.Wholesaler, error)
	DeleteWholesaler(id uuid.UUID) error
}

type CreateWholesalerInput struct {
	Name    string `json:"name" validate:"required"`
	GSTNo   string `json:"gst_no" validate:"required"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type UpdateWholesalerInput struct {
	Name    *string `json:"name"`
	GSTNo   *string `json:"gst_no"`
	Address *string `json:"address"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
}

type wholesalerService struct {
	wholesalerRepo repository.WholesalerRepository
}

func NewWholesalerService(wholesalerRepo repository.WholesalerRepository) WholesalerService {
	return &wholesalerService{wholesalerRepo: wholesalerRepo}
}

func (s *wholesalerService) CreateWholesaler(in *CreateWholesalerInput) (*model.Wholesaler, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validationf("validation failed: field '%s' failed on tag '%s'", first.FailedField, first.Tag)
	}

	w := model.Wholesaler{
		Name:    in.Name,
		GSTNo:   in.GSTNo,
		Address: in.Address,
		Contact: in.Contact,
		Email:   in.Email,
	}
	if err := s.wholesalerRepo.Create(&w); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("wholesaler with GST number %q already exists", in.GSTNo)
		}
		return nil, err
	}
	return &w, nil
}

func (s *wholesalerService) GetWholesaler(id uuid.UUID) (*model.Wholesaler, error) {
	w, err := s.wholesalerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("wholesaler not found with id %s", id)
		}
		return nil, err
	}
	return w, nil
}

func (s *wholesalerService) GetAllWholesalers() ([]model.Wholesaler, error) {
	return s.wholesalerRepo.FindAll()
}

func (s *wholesalerService) UpdateWholesaler(id uuid.UUID, in *UpdateWholesalerInput) (*model.Wholesaler, error) {
	fields := make(map[string]interface{})
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validationf("name must not be empty")
		}
		fields["name"] = *in.Name
	}
	if in.GSTNo != nil {
		if *in.GSTNo == "" {
			return nil, apperr.Validationf("gst_no must not be empty")
		}
		fields["gst_no"] = *in.GSTNo
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.Contact != nil {
		fields["contact"] = *in.Contact
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if len(fields) == 0 {
		return nil, apperr.Validationf("no fields to update, provide at least one field")
	}

	affected, err := s.wholesalerRepo.UpdateFields(id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("another wholesaler already uses that GST number")
		}
		return nil, err
	}
	if affected == 0 {
		return nil, apperr.NotFoundf("wholesaler not found with id %s", id)
	}
	return s.wholesalerRepo.FindByID(id)
}

func (s *wholesalerService) DeleteWholesaler(id uuid.UUID) error {
	affected, err := s.wholesalerRepo.SoftDelete(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("wholesaler not found with id %s", id)
	}
	return nil
}
