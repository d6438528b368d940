package repository

import (
	"errors"

	"github.com/slabmarket/settlement-service/internal/domain"
	"gorm.io/gorm"
)

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
