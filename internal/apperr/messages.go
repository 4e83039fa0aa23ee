package apperr

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var messages = map[language.Tag]map[Code]string{
	language.English: {
		CodeNotAuthorized:          "You are not authorized.",
		CodeUserNotFound:           "User does not exist.",
		CodeIsSocialUser:           "This account signs in with a social provider.",
		CodePasswordIncorrect:      "Password is incorrect.",
		CodeEmailAlreadyExists:     "Email already exists.",
		CodeUserCanceledAccount:    "This account was canceled. Please recover it instead of signing up again.",
		CodeDisplayNameExists:      "Display name is already in use.",
		CodeSignInWithSocialFailed: "Failed to sign in with the social account.",
		CodeUploadFailed:           "Failed to upload the file.",
		CodeUserCreateFailed:       "Failed to create the user.",
		CodeInvalidInput:           "The request is invalid.",
		CodeUnknown:                "An unknown error occurred.",
	},
	language.Korean: {
		CodeNotAuthorized:          "권한이 없습니다.",
		CodeUserNotFound:           "존재하지 않는 사용자입니다.",
		CodeIsSocialUser:           "소셜 로그인으로 가입한 계정입니다.",
		CodePasswordIncorrect:      "비밀번호가 올바르지 않습니다.",
		CodeEmailAlreadyExists:     "이미 존재하는 이메일입니다.",
		CodeUserCanceledAccount:    "탈퇴한 계정입니다. 계정 복구를 진행해 주세요.",
		CodeDisplayNameExists:      "이미 사용 중인 닉네임입니다.",
		CodeSignInWithSocialFailed: "소셜 로그인에 실패했습니다.",
		CodeUploadFailed:           "파일 업로드에 실패했습니다.",
		CodeUserCreateFailed:       "사용자 생성에 실패했습니다.",
		CodeInvalidInput:           "잘못된 요청입니다.",
		CodeUnknown:                "알 수 없는 오류가 발생했습니다.",
	},
}

var messageCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for code, text := range msgs {
			if err := b.SetString(tag, string(code), text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Localize returns the message for code in locale, falling back to English.
func Localize(locale language.Tag, code Code) string {
	p := message.NewPrinter(locale, message.Catalog(messageCatalog))
	return p.Sprintf(message.Reference(string(code)))
}
