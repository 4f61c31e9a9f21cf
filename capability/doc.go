/*
Package capability 按模型名把 LLM 归类到能力画像（Profile）。

# 解析顺序

 1. 精确匹配种子表中的模型名；
 2. 对每个种子键去掉第一个 ':' 之后的部分得到词干，按声明顺序检查词干是否为
    模型名的子串，取第一个命中项；
 3. 都不命中时返回固定的保守默认画像。

第 2 步在多个词干同时命中时按声明顺序而非特异性决胜，例如 "llama3.1:70b-q4"
会命中先声明的 "llama3.1:8b"。这是已知的歧义，保持原样。

Registry 构造后只读，种子表通过 NewRegistry 注入，测试可以替换整张表而不影响
进程内其它实例。
*/
package capability
