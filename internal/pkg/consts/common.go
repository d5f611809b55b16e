package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

// 实时推送事件类型
const (
	EventDirectMessage   = "DIRECT_MESSAGE"
	EventReadReceipt     = "READ_RECEIPT"
	EventMessageRecalled = "MESSAGE_RECALLED"
	EventRoomInvitation  = "ROOM_INVITATION"
)
