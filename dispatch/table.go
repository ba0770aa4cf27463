package dispatch

import (
	"strings"

	"sori/command"
)

// Entry binds a spoken phrase to an action. Pattern is matched as a
// substring of the normalized utterance.
type Entry struct {
	Pattern string
	Action  command.Action
}

// Table is a priority list: the first entry whose pattern occurs in the
// utterance wins. A phrase that contains another phrase must therefore be
// declared before it ("음소거 해제" before "음소거").
type Table []Entry

// Match returns the first entry whose pattern occurs in text.
func (t Table) Match(text string) (Entry, bool) {
	for _, e := range t {
		if strings.Contains(text, e.Pattern) {
			return e, true
		}
	}
	return Entry{}, false
}

func act(k command.Kind) command.Action { return command.Action{Kind: k} }

func open(app string) command.Action { return command.Open(app) }

const (
	volumeStep = 10
	scrollStep = 5
	mouseStep  = 100
)

// DefaultTable is the built-in command set.
var DefaultTable = Table{
	// apps
	{"사파리 열어", open("Safari")},
	{"safari 열어", open("Safari")},
	{"크롬 열어", open("Google Chrome")},
	{"chrome 열어", open("Google Chrome")},
	{"파인더 열어", open("Finder")},
	{"finder 열어", open("Finder")},
	{"터미널 열어", open("Terminal")},
	{"terminal 열어", open("Terminal")},
	{"메모 열어", open("Notes")},
	{"노트 열어", open("Notes")},
	{"음악 열어", open("Music")},
	{"뮤직 열어", open("Music")},
	{"시스템 설정 열어", open("System Preferences")},
	{"설정 열어", open("System Preferences")},
	{"카카오톡 열어", open("KakaoTalk")},
	{"슬랙 열어", open("Slack")},
	{"slack 열어", open("Slack")},
	{"비주얼 스튜디오 열어", open("Visual Studio Code")},
	{"vscode 열어", open("Visual Studio Code")},
	{"코드 열어", open("Visual Studio Code")},

	// volume
	{"볼륨 올려", command.Action{Kind: command.VolumeUp, Amount: volumeStep}},
	{"소리 올려", command.Action{Kind: command.VolumeUp, Amount: volumeStep}},
	{"볼륨 높여", command.Action{Kind: command.VolumeUp, Amount: volumeStep}},
	{"볼륨 내려", command.Action{Kind: command.VolumeDown, Amount: volumeStep}},
	{"소리 내려", command.Action{Kind: command.VolumeDown, Amount: volumeStep}},
	{"볼륨 낮춰", command.Action{Kind: command.VolumeDown, Amount: volumeStep}},
	{"음소거 해제", act(command.Unmute)},
	{"소리 켜", act(command.Unmute)},
	{"음소거", act(command.Mute)},
	{"뮤트", act(command.Mute)},
	{"소리 꺼", act(command.Mute)},

	// brightness
	{"밝기 올려", act(command.BrightnessUp)},
	{"화면 밝게", act(command.BrightnessUp)},
	{"밝기 높여", act(command.BrightnessUp)},
	{"밝기 내려", act(command.BrightnessDown)},
	{"화면 어둡게", act(command.BrightnessDown)},
	{"밝기 낮춰", act(command.BrightnessDown)},

	// tabs
	{"새 탭", act(command.TabNew)},
	{"탭 닫아", act(command.TabClose)},
	{"다음 탭", act(command.TabNext)},
	{"이전 탭", act(command.TabPrev)},

	// mouse
	{"왼쪽 클릭", act(command.MouseClick)},
	{"오른쪽 클릭", act(command.MouseRightClick)},
	{"우클릭", act(command.MouseRightClick)},
	{"더블 클릭", act(command.MouseDoubleClick)},
	{"더블클릭", act(command.MouseDoubleClick)},
	{"클릭", act(command.MouseClick)},
	{"스크롤 위로", command.Action{Kind: command.ScrollUp, Amount: scrollStep}},
	{"위로 스크롤", command.Action{Kind: command.ScrollUp, Amount: scrollStep}},
	{"스크롤 아래로", command.Action{Kind: command.ScrollDown, Amount: scrollStep}},
	{"아래로 스크롤", command.Action{Kind: command.ScrollDown, Amount: scrollStep}},
	{"마우스 위로", command.Action{Kind: command.MouseMove, DY: -mouseStep}},
	{"마우스 아래로", command.Action{Kind: command.MouseMove, DY: mouseStep}},
	{"마우스 왼쪽으로", command.Action{Kind: command.MouseMove, DX: -mouseStep}},
	{"마우스 오른쪽으로", command.Action{Kind: command.MouseMove, DX: mouseStep}},
	{"마우스 중앙", act(command.MouseCenter)},

	// window
	{"창 최소화", act(command.WindowMinimize)},
	{"최소화", act(command.WindowMinimize)},
	{"창 최대화", act(command.WindowMaximize)},
	{"최대화", act(command.WindowMaximize)},
	{"풀스크린", act(command.WindowFullscreen)},
	{"전체 화면", act(command.WindowFullscreen)},
	{"창 닫아", act(command.WindowClose)},
	{"닫아", act(command.WindowClose)},
	{"창 왼쪽", act(command.WindowLeft)},
	{"왼쪽으로", act(command.WindowLeft)},
	{"창 오른쪽", act(command.WindowRight)},
	{"오른쪽으로", act(command.WindowRight)},
	{"다음 창", act(command.WindowNext)},
	{"창 전환", act(command.WindowNext)},
	{"이전 창", act(command.WindowPrev)},

	// system
	{"화면 잠금", act(command.LockScreen)},
	{"잠금", act(command.LockScreen)},
	{"스크린샷", act(command.Screenshot)},
	{"화면 캡처", act(command.Screenshot)},
	{"캡처", act(command.Screenshot)},
	{"잠자기", act(command.Sleep)},
	{"슬립", act(command.Sleep)},

	// media
	{"재생", act(command.MediaPlayPause)},
	{"일시정지", act(command.MediaPlayPause)},
	{"플레이", act(command.MediaPlayPause)},
	{"다음 곡", act(command.MediaNext)},
	{"이전 곡", act(command.MediaPrev)},
}

// ExtendedTable holds editing and navigation shortcuts. It is appended after
// DefaultTable when enabled.
var ExtendedTable = Table{
	{"전체 선택", act(command.SelectAll)},
	{"복사해", act(command.Copy)},
	{"붙여넣기", act(command.Paste)},
	{"붙여 넣어", act(command.Paste)},
	{"잘라내기", act(command.Cut)},
	{"실행 취소", act(command.Undo)},
	{"되돌려", act(command.Undo)},
	{"다시 실행", act(command.Redo)},
	{"저장해", act(command.Save)},
	{"찾기", act(command.Find)},
	{"앱 전환", act(command.SwitchApp)},
	{"한영 전환", act(command.SwitchInputSource)},
	{"입력 소스 전환", act(command.SwitchInputSource)},
	{"스포트라이트", act(command.Spotlight)},
	{"spotlight", act(command.Spotlight)},
}

// Build returns the active table.
func Build(extended bool) Table {
	t := append(Table(nil), DefaultTable...)
	if extended {
		t = append(t, ExtendedTable...)
	}
	return t
}
