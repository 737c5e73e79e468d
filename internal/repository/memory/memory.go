package memory

import (
	"retail_bank/internal/repository"
)

var (
	_ repository.AccountStore      = (*AccountStore)(nil)
	_ repository.ArchiveRepository = (*Archive)(nil)
)
