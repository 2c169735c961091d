package utils

// ToCmdLine convert strings to [][]byte
func ToCmdLine(cmd ...string) [][]byte {
	args := make([][]byte, len(cmd))
	for i, s := range cmd {
		args[i] = []byte(s)
	}
	return args
}

// CmdString 把命令行拼回可读字符串，用于日志和错误信息
func CmdString(cmdLine [][]byte) string {
	n := 0
	for _, arg := range cmdLine {
		n += len(arg) + 1
	}
	buf := make([]byte, 0, n)
	for i, arg := range cmdLine {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, arg...)
	}
	return string(buf)
}
