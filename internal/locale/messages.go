package locale

// Message keys. Parameters use the universal-translator {n} placeholders.
const (
	KeyRequired    = "validation.required"
	KeyMinLength   = "validation.min_length"
	KeyMaxLength   = "validation.max_length"
	KeyMin         = "validation.min"
	KeyMax         = "validation.max"
	KeyInteger     = "validation.integer"
	KeyEmail       = "validation.email"
	KeyURL         = "validation.url"
	KeyUUID        = "validation.uuid"
	KeyOneOf       = "validation.one_of"
	KeyType        = "validation.type"
	KeyUnknown     = "validation.unknown_field"
	KeyPlainStatus = "server.listening.plain"
	KeyTLSStatus   = "server.listening.secure"
	KeyNoDatastore = "datastore.skipped"
)

var tables = map[string]map[string]string{
	"en": {
		KeyRequired:    "{0} is required",
		KeyMinLength:   "{0} must be at least {1} characters long",
		KeyMaxLength:   "{0} must be at most {1} characters long",
		KeyMin:         "{0} must be {1} or greater",
		KeyMax:         "{0} must be {1} or less",
		KeyInteger:     "{0} must be a whole number",
		KeyEmail:       "{0} must be a valid email address",
		KeyURL:         "{0} must be a valid URL",
		KeyUUID:        "{0} must be a valid UUID",
		KeyOneOf:       "{0} must be one of [{1}]",
		KeyType:        "{0} must be a {1}",
		KeyUnknown:     "{0} is not allowed",
		KeyPlainStatus: "Server listening on http://{0}",
		KeyTLSStatus:   "Secure server listening on https://{0}",
		KeyNoDatastore: "No databases configured, skipping datastore connection",
	},
	"fr": {
		KeyRequired:    "{0} est obligatoire",
		KeyMinLength:   "{0} doit contenir au moins {1} caractères",
		KeyMaxLength:   "{0} doit contenir au plus {1} caractères",
		KeyMin:         "{0} doit être supérieur ou égal à {1}",
		KeyMax:         "{0} doit être inférieur ou égal à {1}",
		KeyInteger:     "{0} doit être un nombre entier",
		KeyEmail:       "{0} doit être une adresse e-mail valide",
		KeyURL:         "{0} doit être une URL valide",
		KeyUUID:        "{0} doit être un UUID valide",
		KeyOneOf:       "{0} doit être l'une des valeurs [{1}]",
		KeyType:        "{0} doit être de type {1}",
		KeyUnknown:     "{0} n'est pas autorisé",
		KeyPlainStatus: "Serveur à l'écoute sur http://{0}",
		KeyTLSStatus:   "Serveur sécurisé à l'écoute sur https://{0}",
		KeyNoDatastore: "Aucune base de données configurée, connexion ignorée",
	},
	"es": {
		KeyRequired:    "{0} es obligatorio",
		KeyMinLength:   "{0} debe tener al menos {1} caracteres",
		KeyMaxLength:   "{0} debe tener como máximo {1} caracteres",
		KeyMin:         "{0} debe ser {1} o mayor",
		KeyMax:         "{0} debe ser {1} o menor",
		KeyInteger:     "{0} debe ser un número entero",
		KeyEmail:       "{0} debe ser un correo electrónico válido",
		KeyURL:         "{0} debe ser una URL válida",
		KeyUUID:        "{0} debe ser un UUID válido",
		KeyOneOf:       "{0} debe ser uno de [{1}]",
		KeyType:        "{0} debe ser de tipo {1}",
		KeyUnknown:     "{0} no está permitido",
		KeyPlainStatus: "Servidor escuchando en http://{0}",
		KeyTLSStatus:   "Servidor seguro escuchando en https://{0}",
		KeyNoDatastore: "No hay bases de datos configuradas, se omite la conexión",
	},
}
