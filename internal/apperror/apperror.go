// Package apperror provides the integer-coded catalog of client-facing error
// messages. The error_code field gives clients a stable way to track errors
// beyond the plain HTTP status.
package apperror

import (
	"fmt"
	"strings"
)

// Message is one entry of the error catalog.
type Message struct {
	Code    int    `json:"error_code"`
	Message string `json:"message"`
}

var (
	Error                   = Message{4, "An error occurred"}
	DuplicateEmail          = Message{5, "This email already exist, please try a different email"}
	DuplicatePhone          = Message{6, "This phone number already exist, please try a different phone number"}
	UnableToSave            = Message{7, "Unable to save"}
	UnableToCompleteRequest = Message{8, "Unable to complete request"}
	InvalidLogin            = Message{10, "Invalid email or password"}
	InvalidToken            = Message{11, "Unable to authenticate request. Please login to continue"}
	SessionExpired          = Message{14, "Session expired. Please login again"}
	UnableToLogin           = Message{15, "Unable to login"}
	InvalidSessionUser      = Message{16, "Unauthenticated user session. Please login again"}
	PasswordMismatch        = Message{17, "Passwords do not match"}
	PasswordUpdateRequired  = Message{18, "Password update is required for this account"}
	InvalidPermission       = Message{19, "Sorry you do not have permission to perform this action"}
	InvalidEmail            = Message{21, "Invalid email address"}
	FileNotFound            = Message{22, "File not found. Please attach a file to your request"}
	FileSizeLimit           = Message{24, "The size of this file is larger than the accepted limit"}
	FileUploadError         = Message{25, "Error uploading file. Please try again"}
	MaxFileCountLimit       = Message{27, "You have exceeded the max number of files"}
	ConsentRequired         = Message{28, "Please grant us the required access to continue"}
)

func RequiredField(field string) Message {
	return Message{2, field + " is required"}
}

func ResourceNotFound(resource string) Message {
	return Message{3, resource + " not found"}
}

func InvalidRequest(reason string) Message {
	return Message{9, "Invalid request. " + reason}
}

func ActionNotPermitted(action string) Message {
	return Message{12, action + " is not permitted"}
}

func DuplicateValue(value string) Message {
	return Message{13, fmt.Sprintf("a duplicate value for %s already exists", value)}
}

func InvalidValue(field string) Message {
	return Message{20, fmt.Sprintf("Invalid value provided for %s", field)}
}

func InvalidFileType(fileTypes []string) Message {
	return Message{23, "You tried to upload an invalid file type, upload a " + strings.Join(fileTypes, ",") + " file instead"}
}

func BadRequest(message string) Message {
	return Message{26, message}
}
