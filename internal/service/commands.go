package service

import (
	"fmt"

	"github.com/deeplx-bot/feishu-translate-bot/internal/biz/domain"
)

const welcomeText = "欢迎使用我的翻译机器人！\n\n" +
	"这个机器人可以帮助你进行中文和英文之间的翻译。\n" +
	"你可以使用以下命令：\n" +
	"/translate <text> - Translate the specified text\n" +
	"/ts <text> - Translate the specified text\n" +
	"翻译 <文本> - 翻译指定文本\n" +
	"/get_user_id - 获取你的用户ID\n" +
	"/get_group_id - 获取当前群组ID\n" +
	"/auto - 切换自动翻译模式\n\n" +
	"当然你也可以对某条消息进行回复，并在输入框输入ts、translate、翻译（不需要加/）回车，\n" +
	"  即可实现翻译指定的消息（需要注意此种方式设定了一定时间后会自动删除译文，如不希望删除译文请使用 [/ts  /translate  翻译 ] xxxx 的形式发送）。\n\n" +
	"本机器人的翻译服务基于deeplx，在此感谢各位大佬的deeplx api。\n\n" +
	"请注意本机器人需要自行搭建或与我申请才能使用，如有需要请说明来意并附带自己用户id或者群组id"

const groupOnlyText = "这个命令只能在群组中使用。"

// infoCommands may be answered outside the allow-list when PUBLIC_INFO_COMMANDS is on
var infoCommands = map[string]bool{
	domain.CommandGetUserID:  true,
	domain.CommandGetGroupID: true,
	domain.CommandStart:      true,
}

func autoToggledText(on bool) string {
	status := "关闭"
	if on {
		status = "开启"
	}
	return fmt.Sprintf("已%s默认翻译所有对话内容", status)
}

func userIDText(userID string) string {
	return fmt.Sprintf("你的用户ID是: %s", userID)
}

func groupIDText(ev *domain.ChatEvent) string {
	if !ev.IsGroup() {
		return groupOnlyText
	}
	return fmt.Sprintf("这个群组的ID是: %s", ev.ChatID)
}
