package bulk

import "errors"

var (
	ErrEmptyUpload       = errors.New("uploaded file is empty")
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrUnsupportedAction = errors.New("unsupported action type")
	ErrConversionFailed  = errors.New("file conversion failed")
	ErrCreateJob         = errors.New("failed to create job")
	ErrInvalidJobID      = errors.New("invalid job id")
	ErrJobNotFound       = errors.New("job not found")
	ErrListJobs          = errors.New("failed to list bulk actions")
	ErrJobDetail         = errors.New("failed to fetch bulk action detail")
	ErrJobStats          = errors.New("failed to fetch bulk action stats")
	ErrErrorLogNotFound  = errors.New("error log entry not found")
	ErrNotRemediable     = errors.New("operational failures cannot be remediated")
	ErrInvalidContact    = errors.New("corrected contact is invalid")
	ErrDuplicateContact  = errors.New("corrected contact already exists")
	ErrRemediate         = errors.New("failed to remediate error log entry")
)
