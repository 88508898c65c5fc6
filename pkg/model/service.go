package model

import "time"

const (
	CategoryBodySpa      = "bodyspa"
	CategoryFacialSpa    = "facialspa"
	CategoryMiniSpa      = "minispa"
	CategoryPregnancySpa = "pregnancyspa"
)

type Service struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" yaml:"-" validate:"omitempty,mongodb"`
	Code         string    `json:"code" bson:"code" yaml:"code" validate:"required,min=1,max=20"`
	Category     string    `json:"category" bson:"category" yaml:"category" validate:"required,oneof=bodyspa facialspa minispa pregnancyspa"`
	Name         string    `json:"name" bson:"name" yaml:"name" validate:"required,min=1,max=100"`
	NameEn       string    `json:"name_en,omitempty" bson:"name_en,omitempty" yaml:"name_en" validate:"omitempty,max=150"`
	NameJa       string    `json:"name_ja,omitempty" bson:"name_ja,omitempty" yaml:"name_ja" validate:"omitempty,max=150"`
	Price        int64     `json:"price" bson:"price" yaml:"price" validate:"min=0"`
	SelfOilPrice *int64    `json:"self_oil_price,omitempty" bson:"self_oil_price,omitempty" yaml:"self_oil_price" validate:"omitempty,min=0"`
	Duration     int       `json:"duration" bson:"duration" yaml:"duration" validate:"required,min=1,max=600"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description" validate:"omitempty,max=2000"`
	Process      string    `json:"process,omitempty" bson:"process,omitempty" yaml:"process" validate:"omitempty,max=2000"`
	Order        int       `json:"order" bson:"order" yaml:"order" validate:"min=0"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" yaml:"-"`
}
