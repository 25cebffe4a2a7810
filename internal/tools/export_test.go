package tools

// GenericError exposes the generic failure message to the external test package.
const GenericError = genericError
