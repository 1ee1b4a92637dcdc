package domain

import (
	"time"
)

// Board is the site root. Every category belongs to exactly one board.
type Board struct {
	Id        BoardId
	Name      string
	CreatedAt time.Time
}

// to iterate thru layers: handler -> engine -> storage
type CategoryCreationData struct {
	BoardId                        BoardId
	Alias                          CategoryAlias
	Name                           CategoryName
	IsHidden                       bool
	DefaultBumpLimit               int
	DefaultShowThreadLocalUserHash bool
}

type Category struct {
	Id                             CategoryId
	BoardId                        BoardId
	Alias                          CategoryAlias
	Name                           CategoryName
	IsHidden                       bool
	DefaultBumpLimit               int
	DefaultShowThreadLocalUserHash bool
	Moderators                     Moderators
	CreatedAt                      time.Time
	IsDeleted                      bool
}
