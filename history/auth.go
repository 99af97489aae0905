package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// TermAuth 终端交互登录：手机号来自配置，验证码与二步密码从标准输入读取
type TermAuth struct {
	PhoneNumber string
}

func (a TermAuth) Phone(_ context.Context) (string, error) {
	if a.PhoneNumber == "" {
		return "", errors.New("配置文件未填写phone，无法登录")
	}
	return a.PhoneNumber, nil
}

func (a TermAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Printf("验证码已发送到%s，请输入>>>", a.PhoneNumber)
	return readLine()
}

func (a TermAuth) Password(_ context.Context) (string, error) {
	fmt.Print("请输入二步验证密码>>>")
	return readLine()
}

func (a TermAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a TermAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("该账号未注册，不支持注册")
}

// NewAuthFlow 未授权时走一次交互登录，已授权时不做任何事
func NewAuthFlow(phone string) auth.Flow {
	return auth.NewFlow(TermAuth{PhoneNumber: phone}, auth.SendCodeOptions{})
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
