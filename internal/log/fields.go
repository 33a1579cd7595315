package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldRoute         = "route"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldAmountCents   = "amount_cents"
	FieldVersion       = "ledger_version"
	FieldEventKind     = "event_kind"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentAnalytics = "analytics"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpExport = "export"
	OpMirror = "mirror"
)

// LogFields is a small builder for slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the identifying fields of a transaction. The
// description is left out on purpose since it is free text.
func (f LogFields) WithTransaction(id, typ, category string, amountCents int64) LogFields {
	f[FieldTransactionID] = id
	f[FieldType] = typ
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

func (f LogFields) WithVersion(version uint64) LogFields {
	f[FieldVersion] = version
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
