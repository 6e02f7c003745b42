package setup

// SettingsInput은 setup 폼에서 입력받는 값이다.
type SettingsInput struct {
	// Fallback은 선언이 없는 디렉토리에서의 동작이다 ("keep" | "default").
	Fallback    string
	DefaultNode string
	DefaultPnpm string
	ManagePnpm  bool
	// InstallHook이 true면 셸 RC 파일에 hook을 추가한다.
	InstallHook bool
}

// FormRunner는 TUI 폼 실행을 추상화하는 interface다.
// 프로덕션에서는 huh 기반 구현, 테스트에서는 mock을 사용한다.
type FormRunner interface {
	// RunSettingsForm은 설정 입력 폼을 실행한다. defaults의 값이 초기값으로 표시된다.
	RunSettingsForm(defaults *SettingsInput) (*SettingsInput, error)

	// RunConfirm은 확인 프롬프트를 표시한다.
	RunConfirm(message string) (bool, error)
}
