package core

import "github.com/robo-univ/agent-portal/internal/utils"

type cannedKey int

const (
	msgNoDocuments cannedKey = iota
	msgApology
	msgProhibitedDefault
	msgPersonaCommand
	msgSettingsCommand
	msgDocumentCommand
	msgNotificationCommand
	msgHelp
)

var cannedTexts = map[cannedKey]map[string]string{
	msgNoDocuments: {
		"ko": "아직 업로드된 문서가 없습니다. 이 챗봇은 문서 기반으로만 답변하므로, 먼저 관리자에게 문서 업로드를 요청해 주세요.",
		"en": "No documents have been uploaded yet. This chatbot answers only from documents, so please ask the manager to upload a document first.",
		"ja": "まだ文書がアップロードされていません。このチャットボットは文書のみに基づいて回答するため、まず管理者に文書のアップロードを依頼してください。",
		"zh": "尚未上传任何文档。此聊天机器人仅根据文档回答，请先请管理员上传文档。",
		"vi": "Chưa có tài liệu nào được tải lên. Chatbot này chỉ trả lời dựa trên tài liệu, vui lòng yêu cầu quản trị viên tải tài liệu lên trước.",
	},
	msgApology: {
		"ko": "죄송합니다. 현재 응답을 생성할 수 없습니다. 잠시 후 다시 시도해주세요.",
		"en": "Sorry, I can't generate a response right now. Please try again in a moment.",
		"ja": "申し訳ありません。現在応答を生成できません。しばらくしてからもう一度お試しください。",
		"zh": "抱歉，目前无法生成回复。请稍后再试。",
		"vi": "Xin lỗi, hiện tại tôi không thể tạo câu trả lời. Vui lòng thử lại sau.",
	},
	msgProhibitedDefault: {
		"ko": "죄송합니다. 해당 내용에 대해서는 답변드릴 수 없습니다.",
		"en": "I'm sorry, but I can't answer questions about that.",
		"ja": "申し訳ありませんが、その内容にはお答えできません。",
		"zh": "抱歉，我无法回答该内容。",
		"vi": "Xin lỗi, tôi không thể trả lời về nội dung đó.",
	},
	msgPersonaCommand: {
		"ko": "페르소나 편집 창을 열었습니다. 닉네임, 말투, 성격 등을 수정할 수 있습니다.",
		"en": "I've opened the persona editor. You can change the nickname, speaking style and personality there.",
		"ja": "ペルソナ編集画面を開きました。ニックネーム、話し方、性格を変更できます。",
		"zh": "已打开角色编辑窗口，您可以修改昵称、语气和性格。",
		"vi": "Đã mở trình chỉnh sửa persona. Bạn có thể thay đổi biệt danh, giọng điệu và tính cách.",
	},
	msgSettingsCommand: {
		"ko": "챗봇 설정 창을 열었습니다. LLM 모델과 챗봇 유형, 공개 범위를 변경할 수 있습니다.",
		"en": "I've opened the chatbot settings. You can change the LLM model, chatbot type and visibility there.",
		"ja": "チャットボット設定画面を開きました。LLMモデル、チャットボットの種類、公開範囲を変更できます。",
		"zh": "已打开聊天机器人设置，您可以更改LLM模型、聊天机器人类型和可见范围。",
		"vi": "Đã mở cài đặt chatbot. Bạn có thể thay đổi mô hình LLM, loại chatbot và phạm vi hiển thị.",
	},
	msgDocumentCommand: {
		"ko": "문서 업로드 창을 열었습니다. 챗봇이 참고할 문서를 업로드해 주세요.",
		"en": "I've opened the document upload dialog. Please upload the documents the chatbot should use.",
		"ja": "文書アップロード画面を開きました。チャットボットが参照する文書をアップロードしてください。",
		"zh": "已打开文档上传窗口，请上传聊天机器人需要参考的文档。",
		"vi": "Đã mở hộp thoại tải tài liệu. Vui lòng tải lên tài liệu mà chatbot sẽ tham khảo.",
	},
	msgNotificationCommand: {
		"ko": "알림 내용을 입력해 주세요. 입력하신 내용이 이 챗봇의 모든 사용자에게 전송됩니다.",
		"en": "Please type the notification text. It will be sent to every user of this chatbot.",
		"ja": "通知内容を入力してください。このチャットボットのすべてのユーザーに送信されます。",
		"zh": "请输入通知内容，它将发送给此聊天机器人的所有用户。",
		"vi": "Vui lòng nhập nội dung thông báo. Nội dung sẽ được gửi đến tất cả người dùng của chatbot này.",
	},
	msgHelp: {
		"ko": "사용 가능한 관리 명령어:\n" +
			"1. 페르소나 변경 - 닉네임, 말투, 성격 편집 (예: \"페르소나 변경\")\n" +
			"2. 챗봇 설정 - LLM 모델, 챗봇 유형, 공개 범위 (예: \"챗봇 설정\")\n" +
			"3. 문서 업로드 - 챗봇이 참고할 문서 관리 (예: \"문서 업로드\")\n" +
			"4. 알림 보내기 - 모든 사용자에게 공지 전송 (예: \"공지 보내기\")\n" +
			"5. 도움말 - 이 목록 보기 (예: \"도움말\")\n" +
			"그 외의 메시지는 일반 대화로 처리됩니다.",
		"en": "Available management commands:\n" +
			"1. Persona - edit nickname, speaking style and personality (e.g. \"change persona\")\n" +
			"2. Settings - LLM model, chatbot type and visibility (e.g. \"chatbot settings\")\n" +
			"3. Documents - manage the documents the chatbot uses (e.g. \"upload document\")\n" +
			"4. Notification - broadcast a notice to every user (e.g. \"send announcement\")\n" +
			"5. Help - show this list (e.g. \"help\")\n" +
			"Any other message is handled as a normal conversation.",
	},
}

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"vi": "Vietnamese",
}

// cannedText returns the text for lang, falling back to English and then
// to the source language.
func cannedText(key cannedKey, lang string) string {
	texts := cannedTexts[key]
	if text, ok := texts[lang]; ok {
		return text
	}
	if text, ok := texts["en"]; ok {
		return text
	}
	return texts[utils.SourceLanguage]
}

func languageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return lang
}
